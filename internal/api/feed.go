package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

// FeedClient reads the realtime feed published by the game server: a
// games.json listing plus one append-only JSONL packet log per game.
type FeedClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	return &FeedClient{
		baseURL: strings.TrimRight(cfg.RealtimeBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GameList fetches the authoritative listing of recorded games.
func (c *FeedClient) GameList(ctx context.Context) ([]protocol.GameItem, error) {
	url := fmt.Sprintf("%s/realtime/games.json", c.baseURL)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var games []protocol.GameItem
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, fmt.Errorf("decode game list: %w", err)
	}
	return games, nil
}

// GamePackets fetches a game's full packet log. The log is newline
// delimited JSON; a malformed line fails the whole fetch so a partially
// written server file is never half-applied.
func (c *FeedClient) GamePackets(ctx context.Context, filename string) ([]protocol.RealtimePacket, error) {
	url := fmt.Sprintf("%s/realtime/%s.jsonl", c.baseURL, filename)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	packets, err := protocol.ParseJSONL(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode packets for %s: %w", filename, err)
	}
	return packets, nil
}

func (c *FeedClient) get(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("feed error: %d", resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
