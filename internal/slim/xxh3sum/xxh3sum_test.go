package xxh3sum

import "testing"

func TestSum64Deterministic(t *testing.T) {
	data := []byte("snowflake body bytes")
	if Sum64(data) != Sum64(data) {
		t.Fatalf("expected deterministic hash")
	}
}

func TestSum64ConcatMatchesJoined(t *testing.T) {
	a := []byte{0x02, 0x10}
	b := []byte("ping body")
	joined := append(append([]byte{}, a...), b...)
	if Sum64Concat(a, b) != Sum64(joined) {
		t.Fatalf("concat hash does not match joined hash")
	}
}

func TestSum64DiffersOnMutation(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 5}
	if Sum64(a) == Sum64(b) {
		t.Fatalf("expected different hashes for different inputs")
	}
}
