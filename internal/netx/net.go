// Package netx checks whether the translation relay can be reached.
package netx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var client = resty.New()

// Ping sends a HEAD request to url. Any HTTP answer, including 4xx and
// 5xx, means the host is reachable; only transport failures and timeouts
// are errors.
func Ping(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.R().SetContext(ctx).Head(url); err != nil {
		return fmt.Errorf("ping %s: %w", url, err)
	}
	return nil
}
