package pretokenize

import (
	"bufio"
	"bytes"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s Splitter, in []byte) []string {
	var out []string
	for c := range s.Chunks(in) {
		out = append(out, string(c))
	}
	return out
}

func scanAll(t *testing.T, s Splitter, in []byte) []string {
	t.Helper()
	sc := bufio.NewScanner(iotest.OneByteReader(bytes.NewReader(in)))
	sc.Split(s.Split)

	var out []string
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	require.NoError(t, sc.Err())
	return out
}

func TestCL100k_Chunks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "words", in: "Hello world", want: []string{"Hello", " world"}},
		{name: "contraction", in: "I'm here", want: []string{"I", "'m", " here"}},
		{name: "contraction upper", in: "They'RE", want: []string{"They", "'RE"}},
		{name: "contraction wins over prefix", in: "'Sup", want: []string{"'S", "up"}},
		{name: "long s folds to s", in: "'ſ", want: []string{"'ſ"}},
		{name: "apostrophe prefix", in: "don't", want: []string{"don", "'t"}},
		{name: "digits in threes", in: "12345", want: []string{"123", "45"}},
		{name: "trailing spaces", in: "x   ", want: []string{"x", "   "}},
		{name: "spaces before word", in: "x   y", want: []string{"x", "  ", " y"}},
		{name: "punct with newlines", in: "hello!!\n\nworld", want: []string{"hello", "!!\n\n", "world"}},
		{name: "newline run", in: "a \n\n b", want: []string{"a", " \n\n", " b"}},
		{name: "tab prefix", in: "foo\tbar", want: []string{"foo", "\tbar"}},
		{name: "space punct", in: " $100", want: []string{" $", "100"}},
		{name: "comma prefix", in: "a,b", want: []string{"a", ",b"}},
		{name: "emoji", in: "😀😀 ok", want: []string{"😀😀", " ok"}},
		{name: "mixed scripts", in: "ß123abc", want: []string{"ß", "123", "abc"}},
		{name: "only spaces", in: "   ", want: []string{"   "}},
		{name: "crlf", in: "a\r\nb", want: []string{"a", "\r\n", "b"}},
		{name: "invalid bytes", in: "\xff\xfeabc", want: []string{"\xff\xfe", "abc"}},
		{name: "truncated rune", in: "ab\xe4\xb8", want: []string{"ab", "\xe4\xb8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(CL100k, []byte(tt.in)))
			assert.Equal(t, tt.want, scanAll(t, CL100k, []byte(tt.in)))
		})
	}
}

const alphabet = "abcdelmrstvSTLXYZ019 \t\n\r'.,!?$-é中😀 \u00a0　"

func randomText(rng *rand.Rand, n int) string {
	runes := []rune(alphabet)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteRune(runes[rng.Intn(len(runes))])
	}
	return sb.String()
}

var corpus = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Well, Prince, so Genoa and Lucca are now just family estates of the Buonapartes.",
	"    indented code() {\n        return x+1;\n    }\n",
	"It's 2024 and we've got 1234567 reasons; they'll say I'd be fine.",
	"Hello 世界! 🌍 Привет, мир. مرحبا",
	"tabs\tnewlines\n\r\n\r spaces   end   ",
	"numbers: ١٢٣٤ 3.14159 1e10 ⅔",
	"  \n\n\n  x",
	"!!!???...\n\n\n",
}

func TestCL100k_MatchesRegexp(t *testing.T) {
	ref := MustRegexp(CL100kPattern)

	for _, s := range corpus {
		assert.Equal(t, collect(ref, []byte(s)), collect(CL100k, []byte(s)), "%q", s)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		s := randomText(rng, rng.Intn(40))
		require.Equal(t, collect(ref, []byte(s)), collect(CL100k, []byte(s)), "%q", s)
	}
}

func TestCL100k_MatchesRegexpOnRandomBytes(t *testing.T) {
	ref := MustRegexp(CL100kPattern)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 300; i++ {
		buf := make([]byte, rng.Intn(32))
		rng.Read(buf)
		require.Equal(t, collect(ref, buf), collect(CL100k, buf), "%x", buf)
	}
}

func TestSplitters_CoverInput(t *testing.T) {
	splitters := map[string]Splitter{
		"cl100k": CL100k,
		"regexp": MustRegexp(gpt2Pattern),
	}
	rng := rand.New(rand.NewSource(3))

	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				buf := make([]byte, rng.Intn(64))
				rng.Read(buf)

				var joined []byte
				for c := range s.Chunks(buf) {
					require.NotEmpty(t, c)
					joined = append(joined, c...)
				}
				require.Equal(t, string(buf), string(joined))
			}
		})
	}
}

func TestSplitters_Restartable(t *testing.T) {
	in := []byte("restartable sequences, twice over\n")
	seq := CL100k.Chunks(in)

	var first, second []string
	for c := range seq {
		first = append(first, string(c))
	}
	for c := range seq {
		second = append(second, string(c))
	}
	assert.Equal(t, first, second)

	for c := range seq {
		assert.Equal(t, "restartable", string(c))
		break
	}
}

func TestSplitters_StreamingMatchesWhole(t *testing.T) {
	splitters := map[string]Splitter{
		"cl100k": CL100k,
		"regexp": MustRegexp(CL100kPattern),
	}

	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			for _, in := range corpus {
				assert.Equal(t, collect(s, []byte(in)), scanAll(t, s, []byte(in)), "%q", in)
			}
			in := "a \n" + strings.Repeat(" ", 10) + "\nb"
			assert.Equal(t, []string{"a", " \n          \n", "b"}, scanAll(t, s, []byte(in)))
		})
	}
}

func TestRegexp_EmitsGaps(t *testing.T) {
	s := MustRegexp(`\d+`)
	assert.Equal(t, []string{"ab", "12", "cd", "3"}, collect(s, []byte("ab12cd3")))
}

func TestLookup(t *testing.T) {
	s, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, CL100k, s)

	s, err = Lookup(CL100kBase)
	require.NoError(t, err)
	assert.Equal(t, CL100k, s)

	for _, name := range []string{R50kBase, P50kBase, O200kBase} {
		s, err := Lookup(name)
		require.NoError(t, err, name)
		assert.IsType(t, &Regexp{}, s)
	}

	s, err = Lookup(CustomPrefix + `\w+|\W+`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", ", ", "you"}, collect(s, []byte("hi, you")))

	_, err = Lookup(CustomPrefix + `(`)
	assert.Error(t, err)

	_, err = Lookup("nope")
	assert.Error(t, err)
}

func TestGPT2Pattern(t *testing.T) {
	s, err := Lookup(R50kBase)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world", " 12345", "!!"}, collect(s, []byte("Hello world 12345!!")))
}
