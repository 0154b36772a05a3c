package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis answers commands from a map inside a process hook, so the
// client never dials.
type fakeRedis struct {
	data map[string]string
	args [][]interface{}
	fail error
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		f.args = append(f.args, args)
		if f.fail != nil {
			cmd.SetErr(f.fail)
			return f.fail
		}

		switch cmd.Name() {
		case "get":
			v, ok := f.data[args[1].(string)]
			if !ok {
				cmd.SetErr(redis.Nil)
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(v)
		case "set":
			f.data[args[1].(string)] = str(args[2])
			cmd.(*redis.StatusCmd).SetVal("OK")
		case "del":
			var n int64
			for _, k := range args[1:] {
				if _, ok := f.data[k.(string)]; ok {
					delete(f.data, k.(string))
					n++
				}
			}
			cmd.(*redis.IntCmd).SetVal(n)
		case "incr":
			key := args[1].(string)
			n, _ := strconv.ParseInt(f.data[key], 10, 64)
			n++
			f.data[key] = strconv.FormatInt(n, 10)
			cmd.(*redis.IntCmd).SetVal(n)
		default:
			return fmt.Errorf("unexpected command %v", args)
		}
		return nil
	}
}

func str(v interface{}) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func newTestCache(t *testing.T) (*Cache, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(fake)
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "clinicstaff:"), fake
}

type entry struct {
	Name string `json:"name"`
}

func TestGetMissingKeyIsMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got entry
	if err := c.Get(context.Background(), "staff:list:x", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("error = %v, want ErrMiss", err)
	}
}

func TestSetGetRoundTripUsesPrefix(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestCache(t)

	if err := c.Set(ctx, "staff:list:a", entry{Name: "Ana"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := fake.data["clinicstaff:staff:list:a"]; !ok {
		t.Fatalf("stored keys = %v, want prefixed key", fake.data)
	}

	var got entry
	if err := c.Get(ctx, "staff:list:a", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ana" {
		t.Errorf("got %+v", got)
	}
}

func TestDeletePrefixesEveryKey(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestCache(t)

	if err := c.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	last := fake.args[len(fake.args)-1]
	if len(last) != 3 || last[1] != "clinicstaff:a" || last[2] != "clinicstaff:b" {
		t.Errorf("del args = %v", last)
	}

	calls := len(fake.args)
	if err := c.Delete(ctx); err != nil {
		t.Fatalf("Delete with no keys: %v", err)
	}
	if len(fake.args) != calls {
		t.Error("Delete with no keys sent a command")
	}
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	n, err := c.Counter(ctx, "staff:gen:a")
	if err != nil || n != 0 {
		t.Fatalf("Counter on missing key = %d, %v; want 0, nil", n, err)
	}
	for want := int64(1); want <= 2; want++ {
		got, err := c.Incr(ctx, "staff:gen:a")
		if err != nil || got != want {
			t.Fatalf("Incr = %d, %v; want %d", got, err, want)
		}
	}
	if n, err := c.Counter(ctx, "staff:gen:a"); err != nil || n != 2 {
		t.Errorf("Counter = %d, %v; want 2", n, err)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestCache(t)
	fake.fail = errors.New("connection refused")

	var got entry
	err := c.Get(ctx, "k", &got)
	if err == nil || errors.Is(err, ErrMiss) || !errors.Is(err, fake.fail) {
		t.Errorf("Get error = %v, want wrapped connection error", err)
	}
	if _, err := c.Counter(ctx, "k"); !errors.Is(err, fake.fail) {
		t.Errorf("Counter error = %v, want wrapped connection error", err)
	}
}
