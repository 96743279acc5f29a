package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const baseURL = "http://localhost:9000"

var client = &http.Client{Timeout: 5 * time.Second}

var references struct {
	mu   sync.Mutex
	refs []string
}

func main() {
	for {
		var wg sync.WaitGroup
		n := rand.Intn(10)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doRequest()
			}()
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func doRequest() {
	if rand.Intn(4) == 0 {
		doCheckout()
		return
	}
	doRead()
}

func doCheckout() {
	body, _ := json.Marshal(map[string]any{
		"cart": []map[string]any{
			{
				"id":       fmt.Sprintf("sku-%d", rand.Intn(100)),
				"title":    fmt.Sprintf("Item %d", rand.Intn(100)),
				"quantity": rand.Intn(3) + 1,
				"price":    int64(rand.Intn(20000) + 1000),
			},
		},
		"customer": map[string]any{
			"name":  "Load Tester",
			"email": fmt.Sprintf("load%d@example.com", rand.Intn(1000)),
		},
	})

	resp, err := client.Post(baseURL+"/checkout", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("checkout failed:", err)
		return
	}
	defer resp.Body.Close()

	var out struct {
		Reference string `json:"reference"`
	}
	if json.NewDecoder(resp.Body).Decode(&out) == nil && out.Reference != "" {
		references.mu.Lock()
		references.refs = append(references.refs, out.Reference)
		references.mu.Unlock()
	}
	fmt.Println("POST /checkout ->", resp.Status)
}

func doRead() {
	references.mu.Lock()
	var ref string
	if len(references.refs) > 0 {
		ref = references.refs[rand.Intn(len(references.refs))]
	}
	references.mu.Unlock()

	// with no known references yet, probe a miss
	if ref == "" || rand.Intn(5) == 0 {
		ref = fmt.Sprintf("ord_%d_missing", rand.Intn(999999))
	}

	url := baseURL + "/orders/" + ref
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("read failed:", err)
		return
	}
	resp.Body.Close()
	fmt.Println("GET", url, "->", resp.Status)
}
