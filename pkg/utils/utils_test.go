package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenUniqID(t *testing.T) {
	SetupIDWorker(1)

	a := GenUniqID()
	b := GenUniqID()
	assert.Less(t, a, b)
	assert.Len(t, GenUniqIDStr(), len(GenUniqIDStr()))
}

func Test_ParseAcceptLanguage(t *testing.T) {
	res := ParseAcceptLanguage("ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	if len(res) == 0 {
		t.Fatal("expected parsed languages")
	}
	assert.Equal(t, "ru-RU", res[0].Tag)
}

func TestCosine32(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine32([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, Cosine32([]float32{1, 0}, []float32{0, 1}), 1e-6)
	// mismatched dimensions score zero instead of panicking
	assert.Equal(t, float32(0), Cosine32([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, float32(0), Cosine32(nil, nil))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hello", TruncateRunes("hello", 10))
	assert.Equal(t, "при...", TruncateRunes("привет мир", 3))
}

func TestSHA256File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.txt")
	if err := os.WriteFile(path, []byte("corpus line one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := SHA256File(path)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, SHA256([]byte("corpus line one\n")), h1)

	if err := os.WriteFile(path, []byte("corpus line two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h2, err := SHA256File(path)
	if err != nil {
		t.Fatal(err)
	}
	assert.NotEqual(t, h1, h2)
}
