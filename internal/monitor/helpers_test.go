package monitor

import "github.com/hamed0406/netmonitor/internal/repo"

func targetData() repo.CreateTarget {
	return repo.CreateTarget{Name: "t", Address: "https://x.test", OwnerID: "u1"}
}

func targetDataWithAddress(addr string) repo.CreateTarget {
	return repo.CreateTarget{Name: "t", Address: addr, OwnerID: "u1"}
}
