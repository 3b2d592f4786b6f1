package capability

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ppiankov/proofgate/internal/model"
)

func TestInvokePassesThrough(t *testing.T) {
	valid, err := Invoke(context.Background(), AlwaysAccept(), nil, nil, time.Second)
	if err != nil || !valid {
		t.Errorf("accept capability: valid=%v err=%v", valid, err)
	}

	valid, err = Invoke(context.Background(), AlwaysReject(), nil, nil, time.Second)
	if err != nil || valid {
		t.Errorf("reject capability: valid=%v err=%v", valid, err)
	}
}

func TestInvokeContainsPanic(t *testing.T) {
	panicky := Func(func(context.Context, model.PublicInputs, model.Proof) (bool, error) {
		panic("verifier exploded")
	})

	valid, err := Invoke(context.Background(), panicky, nil, nil, time.Second)
	if valid {
		t.Error("panicking verifier must not validate")
	}
	if !errors.Is(err, ErrPanic) {
		t.Errorf("want ErrPanic, got %v", err)
	}
}

func TestInvokeDeadline(t *testing.T) {
	slow := Func(func(ctx context.Context, _ model.PublicInputs, _ model.Proof) (bool, error) {
		select {
		case <-time.After(5 * time.Second):
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})

	start := time.Now()
	valid, err := Invoke(context.Background(), slow, nil, nil, 20*time.Millisecond)
	if valid {
		t.Error("overrunning verifier must not validate")
	}
	if !errors.Is(err, ErrDeadline) {
		t.Errorf("want ErrDeadline, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Invoke did not honor the deadline")
	}
}

func TestInvokeErrorReturn(t *testing.T) {
	failing := Static{Err: errors.New("backend unavailable")}
	valid, err := Invoke(context.Background(), failing, nil, nil, time.Second)
	if valid {
		t.Error("erroring verifier must not validate")
	}
	if err == nil {
		t.Error("capability error must surface to the caller")
	}
}

func TestDivergence(t *testing.T) {
	d := NewDivergence(0) // default threshold 70_000

	cases := []struct {
		name   string
		inputs model.PublicInputs
		want   bool
	}{
		{"within threshold", model.PublicInputs{big.NewInt(850_000), big.NewInt(800_000)}, true},
		{"at threshold", model.PublicInputs{big.NewInt(870_000), big.NewInt(800_000)}, true},
		{"over threshold", model.PublicInputs{big.NewInt(900_000), big.NewInt(700_000)}, false},
		{"order independent", model.PublicInputs{big.NewInt(700_000), big.NewInt(900_000)}, false},
		{"too few inputs", model.PublicInputs{big.NewInt(1)}, false},
		{"nil input", model.PublicInputs{nil, big.NewInt(1)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := d.Verify(context.Background(), c.inputs, nil)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if got != c.want {
				t.Errorf("Verify(%v) = %v, want %v", c.inputs, got, c.want)
			}
		})
	}
}

func TestDivergenceCustomThreshold(t *testing.T) {
	d := NewDivergence(10)
	ok, _ := d.Verify(context.Background(), model.PublicInputs{big.NewInt(100), big.NewInt(111)}, nil)
	if ok {
		t.Error("divergence 11 > threshold 10 must reject")
	}
	ok, _ = d.Verify(context.Background(), model.PublicInputs{big.NewInt(100), big.NewInt(110)}, nil)
	if !ok {
		t.Error("divergence 10 == threshold 10 must accept")
	}
}
