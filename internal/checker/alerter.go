package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Alerter delivers a local alert to the user's device. Implementations must
// be idempotent per delivery ID: redelivering the same logical event is a
// no-op.
type Alerter interface {
	DeliverLocalAlert(ctx context.Context, deliveryID, title, body string) error
}

// PushAlerter posts alerts to the push-gateway service that fans them out to
// registered devices. A redis SETNX guard absorbs redeliveries and a rate
// limiter paces outbound requests so a large sweep cannot flood the gateway.
type PushAlerter struct {
	gatewayURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	rdb        *redis.Client
	dedupTTL   time.Duration
}

func NewPushAlerter(gatewayURL string, rdb *redis.Client, perSecond float64, dedupTTL time.Duration) *PushAlerter {
	if perSecond <= 0 {
		perSecond = 10
	}
	return &PushAlerter{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		rdb:      rdb,
		dedupTTL: dedupTTL,
	}
}

func (a *PushAlerter) DeliverLocalAlert(ctx context.Context, deliveryID, title, body string) error {
	if a.rdb != nil {
		key := "alert:delivered:" + deliveryID
		ok, err := a.rdb.SetNX(ctx, key, 1, a.dedupTTL).Result()
		// If redis is unavailable the gateway's own per-ID idempotence is
		// still behind us, so keep going rather than drop the alert.
		if err == nil && !ok {
			return nil
		}
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"id":    deliveryID,
		"title": title,
		"body":  body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.gatewayURL+"/alerts", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
