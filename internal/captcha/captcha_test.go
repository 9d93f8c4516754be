package captcha

import (
	"errors"
	"sync"
	"testing"
)

func TestNewExpressionChallenge(t *testing.T) {
	challenge, err := New(Request{Kind: KindExpression, Size: 5, Difficulty: Normal, Seed: 11})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if challenge.Kind != KindExpression || challenge.Size != 5 || challenge.Difficulty != Normal || challenge.Seed != 11 {
		t.Fatalf("unexpected challenge metadata: %+v", challenge)
	}

	expected, err := GenerateExpression(ExpressionRequest{Size: 5, Difficulty: Normal, Seed: 11})
	if err != nil {
		t.Fatalf("GenerateExpression returned error: %v", err)
	}
	if challenge.Text != expected.Challenge {
		t.Fatalf("challenge text %q, want %q", challenge.Text, expected.Challenge)
	}

	answer, err := Answer(challenge.Kind, challenge.Text)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if !Check(challenge.Kind, challenge.Text, answer) {
		t.Fatalf("Check(%q, %q) = false", challenge.Text, answer)
	}
	if Check(challenge.Kind, challenge.Text, answer+"1") {
		t.Fatalf("Check accepted a wrong answer for %q", challenge.Text)
	}
}

func TestNewStringChallenge(t *testing.T) {
	challenge, err := New(Request{Kind: KindString, Size: 6, Difficulty: Easy, Seed: 3})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if len(challenge.Text) != 6 {
		t.Fatalf("challenge text %q, want 6 characters", challenge.Text)
	}

	answer, err := Answer(KindString, challenge.Text)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if answer != challenge.Text {
		t.Fatalf("string answer %q, want %q", answer, challenge.Text)
	}
	if !Check(KindString, challenge.Text, challenge.Text) {
		t.Fatal("Check rejected the exact text")
	}
	if Check(KindString, "AbC", "abc") {
		t.Fatal("string check must be case-sensitive")
	}
	if Check(KindString, "", "") {
		t.Fatal("empty string challenge must not verify")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(Request{Kind: "riddle", Size: 3}); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("New error = %v, want %v", err, ErrInvalidKind)
	}
	if _, err := Answer("riddle", "x"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("Answer error = %v, want %v", err, ErrInvalidKind)
	}
	if Check("riddle", "x", "x") {
		t.Fatal("Check accepted an unknown kind")
	}
}

func TestParseKind(t *testing.T) {
	tcs := map[string]Kind{"": KindExpression, "Expression": KindExpression, " string ": KindString}
	for input, want := range tcs {
		got, err := ParseKind(input)
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := ParseKind("image"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("ParseKind error = %v, want %v", err, ErrInvalidKind)
	}
}

func TestParseDifficulty(t *testing.T) {
	tcs := map[string]Difficulty{"easy": Easy, "NORMAL": Normal, "medium": Normal, "hard": Hard, "0": Easy, "2": Hard}
	for input, want := range tcs {
		got, err := ParseDifficulty(input)
		if err != nil {
			t.Fatalf("ParseDifficulty(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseDifficulty(%q) = %s, want %s", input, got, want)
		}
	}
	for _, input := range []string{"3", "-1", "extreme", ""} {
		if _, err := ParseDifficulty(input); !errors.Is(err, ErrInvalidDifficulty) {
			t.Fatalf("ParseDifficulty(%q) error = %v, want %v", input, err, ErrInvalidDifficulty)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := ClampSize(0, 10); got != MinSize {
		t.Fatalf("ClampSize(0, 10) = %d, want %d", got, MinSize)
	}
	if got := ClampSize(50, 10); got != 10 {
		t.Fatalf("ClampSize(50, 10) = %d, want 10", got)
	}
	if got := ClampSize(50, 0); got != 50 {
		t.Fatalf("ClampSize(50, 0) = %d, want 50", got)
	}
	if got := ClampDifficulty(-4); got != Easy {
		t.Fatalf("ClampDifficulty(-4) = %s, want easy", got)
	}
	if got := ClampDifficulty(7); got != Hard {
		t.Fatalf("ClampDifficulty(7) = %s, want hard", got)
	}
}

func TestDefaultProfilesAreValid(t *testing.T) {
	profiles := DefaultProfiles()
	if err := profiles.Validate(); err != nil {
		t.Fatalf("default profiles invalid: %v", err)
	}
	for d := Easy; d <= Hard; d++ {
		if want := 10 + int(d)*10; profiles[d].MaxAbs != want {
			t.Fatalf("%s MaxAbs = %d, want %d", d, profiles[d].MaxAbs, want)
		}
	}
	if (Profiles{}).For(Hard) != profiles[Hard] {
		t.Fatal("zero Profiles must fall back to the defaults")
	}
}

func TestProfileBoundCap(t *testing.T) {
	widest := Profile{Min: 0, Max: MaxProfileBound, MaxAbs: MaxProfileBound}
	if err := widest.Validate(); err != nil {
		t.Fatalf("Validate(%+v) = %v", widest, err)
	}
	over := Profile{Min: 0, Max: 9, MaxAbs: MaxProfileBound + 1}
	if err := over.Validate(); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("Validate(%+v) = %v, want ErrInvalidProfile", over, err)
	}

	profiles := Profiles{Easy: widest, Normal: widest, Hard: widest}
	for seed := int64(1); seed <= 200; seed++ {
		result, err := GenerateExpression(ExpressionRequest{Size: 8, Difficulty: Hard, Seed: seed, Profiles: profiles})
		if err != nil {
			t.Fatalf("GenerateExpression(seed=%d) returned error: %v", seed, err)
		}
		if abs(result.Value) > MaxProfileBound {
			t.Fatalf("challenge %q value %d exceeds %d", result.Challenge, result.Value, MaxProfileBound)
		}
		value, err := Evaluate(result.Challenge)
		if err != nil || !value.IsInt() || value.Num().Int64() != int64(result.Value) {
			t.Fatalf("Evaluate(%q) = %v, %v; generator recorded %d", result.Challenge, value, err, result.Value)
		}
	}
}

// TestGenerateConcurrently ensures calls share no state.
func TestGenerateConcurrently(t *testing.T) {
	const workers = 8
	results := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := New(Request{Kind: KindExpression, Size: 6, Difficulty: Hard, Seed: 99})
			if err != nil {
				t.Errorf("New returned error: %v", err)
				return
			}
			results[i] = c.Text
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d produced %q, worker 0 produced %q", i, results[i], results[0])
		}
	}
}
