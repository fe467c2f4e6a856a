package main

import (
	"fmt"
	"net/http"
	"time"
)

// main polls the health endpoint until the contact service answers with
// status OK. Useful for waiting on containers during local development.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/api/health")
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res)
				break
			}
			fmt.Println(res)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
