package output_storage

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

// helper: receive all until channel closes
func recvAllString(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	var out []byte
	for b := range ch {
		out = append(out, b...)
	}
	return string(out)
}

// helper: collect every line until the channel closes, or fail after d
func collectLines(t *testing.T, ch <-chan string, d time.Duration) []string {
	t.Helper()
	var lines []string
	deadline := time.After(d)
	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-deadline:
			t.Fatalf("line channel did not close in time, got %d lines", len(lines))
		}
	}
}

func TestWrite_ChildPipesFeedLineSubscribers(t *testing.T) {
	stdout := New()
	stderr := New()
	outLines := stdout.SubscribeLines(8)
	errLines := stderr.SubscribeLines(8)

	cmd := exec.Command("sh", "-c", `i=1; while [ $i -le 200 ]; do echo "Creating service_$i"; echo "warn $i" 1>&2; i=$((i+1)); done`)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("child failed: %v", err)
	}
	stdout.Stop()
	stderr.Stop()

	gotOut := collectLines(t, outLines, 3*time.Second)
	gotErr := collectLines(t, errLines, 3*time.Second)
	if len(gotOut) != 200 || len(gotErr) != 200 {
		t.Fatalf("expected 200 lines per stream, got stdout=%d stderr=%d", len(gotOut), len(gotErr))
	}
	for i := 0; i < 200; i++ {
		if want := fmt.Sprintf("Creating service_%d", i+1); gotOut[i] != want {
			t.Fatalf("stdout line %d: got %q want %q", i, gotOut[i], want)
		}
		if want := fmt.Sprintf("warn %d", i+1); gotErr[i] != want {
			t.Fatalf("stderr line %d: got %q want %q", i, gotErr[i], want)
		}
	}

	if got, want := stdout.Len(), len(strings.Join(gotOut, "\n"))+1; got != want {
		t.Fatalf("stdout Len: got %d want %d", got, want)
	}
}

func TestSubscribeLines_ConcurrentWritersAndSubscribers(t *testing.T) {
	s := New()

	const subs = 5
	chs := make([]<-chan string, 0, subs)
	for i := 0; i < subs; i++ {
		chs = append(chs, s.SubscribeLines(4))
	}

	const writers, perWriter = 4, 100
	var wg sync.WaitGroup
	total := 0
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			total += len(fmt.Sprintf("w%d-%d\n", w, i))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := fmt.Fprintf(s, "w%d-%d\n", w, i); err != nil {
					t.Errorf("write failed: %v", err)
					return
				}
			}
		}()
	}

	// a subscriber joining mid-stream still replays from the start
	late := s.SubscribeLines(4)

	wg.Wait()
	s.Stop()

	if s.Len() != total {
		t.Fatalf("Len: got %d want %d", s.Len(), total)
	}

	for i, ch := range append(chs, late) {
		lines := collectLines(t, ch, 3*time.Second)
		if len(lines) != writers*perWriter {
			t.Fatalf("subscriber %d: got %d lines, want %d", i, len(lines), writers*perWriter)
		}
		// each Write is one whole line, so writers interleave by line and
		// keep their own order
		next := make([]int, writers)
		for _, line := range lines {
			var w, n int
			if _, err := fmt.Sscanf(line, "w%d-%d", &w, &n); err != nil {
				t.Fatalf("subscriber %d: torn line %q", i, line)
			}
			if n != next[w] {
				t.Fatalf("subscriber %d: writer %d out of order, got %d want %d", i, w, n, next[w])
			}
			next[w]++
		}
	}
}

func TestStop_ClosesLineSubscribersWithPartialLine(t *testing.T) {
	s := New()

	const subs = 20
	chs := make([]<-chan string, 0, subs)
	for i := 0; i < subs; i++ {
		chs = append(chs, s.SubscribeLines(1))
	}

	s.Append([]byte("done\nno newline"))
	s.Stop()

	for i, ch := range chs {
		lines := collectLines(t, ch, 500*time.Millisecond)
		if fmt.Sprint(lines) != fmt.Sprint([]string{"done", "no newline"}) {
			t.Fatalf("subscriber %d: got %q", i, lines)
		}
	}
}
