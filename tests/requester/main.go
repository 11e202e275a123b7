package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	baseURL = "http://localhost:9000"
	fixedID = "ORD-1756722000000-0001"
)

var paths = []string{
	"/orders",
	"/orders/dashboard/counts",
	"/orders/filter/status/Confirmed",
}

func main() {
	for {
		var wg sync.WaitGroup
		for range rand.Intn(10) {
			wg.Go(doRequest)
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func randomOrderID() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli()-int64(rand.Intn(100000)), rand.Intn(10000))
}

func doRequest() {
	url := baseURL + "/orders/" + fixedID
	switch rand.Intn(5) {
	case 0:
		url = baseURL + "/orders/" + randomOrderID()
	case 1:
		url = baseURL + paths[rand.Intn(len(paths))]
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Ошибка запроса:", err)
	} else {
		fmt.Println("GET", url, "->", resp.Status)
		resp.Body.Close()
	}
}
