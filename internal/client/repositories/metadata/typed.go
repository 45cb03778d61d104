package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/promptkeeper/internal/timex"
)

// GetTime reads a timestamp written by SetTime; nil when absent.
func GetTime(ctx context.Context, r Repository, key string) (*time.Time, error) {
	v, err := r.Get(ctx, key)
	if err != nil || len(v) == 0 {
		return nil, err
	}
	t, err := timex.Parse(string(v))
	if err != nil {
		return nil, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return &t, nil
}

func SetTime(ctx context.Context, r Repository, key string, t time.Time) error {
	return r.Set(ctx, key, []byte(timex.Format(t)))
}

// GetBool treats a missing key as false.
func GetBool(ctx context.Context, r Repository, key string) (bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return string(v) == "1", nil
}

func SetBool(ctx context.Context, r Repository, key string, on bool) error {
	if on {
		return r.Set(ctx, key, []byte("1"))
	}
	return r.Set(ctx, key, []byte("0"))
}

// GetJSON decodes the value at key into v and reports whether it was present.
func GetJSON(ctx context.Context, r Repository, key string, v any) (bool, error) {
	raw, err := r.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, r Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return r.Set(ctx, key, raw)
}
