package rdap

import (
	"context"
	"sync"
)

// BatchDomain looks up every name in names concurrently, returning one
// Result per input in the same order (§6). A failure for one input
// does not affect the others.
func (c *Client) BatchDomain(ctx context.Context, names []string) []Result[Domain] {
	out := make([]Result[Domain], len(names))
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			resp, err := c.Domain(ctx, name)
			out[i] = Result[Domain]{Input: name, Response: resp, Error: err}
		}(i, name)
	}

	wg.Wait()
	return out
}

// BatchIP looks up every address in addrs concurrently (§6).
func (c *Client) BatchIP(ctx context.Context, addrs []string) []Result[IPNetwork] {
	out := make([]Result[IPNetwork], len(addrs))
	var wg sync.WaitGroup

	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			resp, err := c.IP(ctx, addr)
			out[i] = Result[IPNetwork]{Input: addr, Response: resp, Error: err}
		}(i, addr)
	}

	wg.Wait()
	return out
}

// BatchASN looks up every ASN in inputs concurrently (§6).
func (c *Client) BatchASN(ctx context.Context, inputs []string) []Result[Autnum] {
	out := make([]Result[Autnum], len(inputs))
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			resp, err := c.ASN(ctx, input)
			out[i] = Result[Autnum]{Input: input, Response: resp, Error: err}
		}(i, input)
	}

	wg.Wait()
	return out
}
