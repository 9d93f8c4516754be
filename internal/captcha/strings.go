package captcha

import "strings"

// characterSets holds the alphabet of each difficulty level. Easy and normal leave out
// characters that are easy to confuse once distorted.
var characterSets = [LevelCount]string{
	// uppercase without D F G I O Q R U, lowercase without e f i j l o p r u y z
	Easy: "ABCEHJKLMNPSTVWXYZ" + "abcdghkmnqstvwx",
	// digits 2-9, uppercase without I O Q U, lowercase without e i l o u z
	Normal: "23456789" + "ABDCEFGHJKLMNPRSTVWXYZ" + "abcdfghjkmnqrstvwxy",
	Hard: "#)*+./;=?_" + "0123456789" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" + "abcdefghijklmnopqrstuvwxyz",
}

// StringRequest describes a fixed-charset challenge to generate.
type StringRequest struct {
	Size       int
	Difficulty Difficulty
	Seed       int64
}

// StringResult is a generated fixed-charset challenge. Its answer is the text itself.
type StringResult struct {
	Challenge string
	Seed      int64
}

// GenerateString picks Size characters uniformly from the difficulty's character set.
// It is deterministic with respect to Seed.
func GenerateString(request StringRequest) (StringResult, error) {
	if request.Size < MinSize {
		return StringResult{}, ErrInvalidSize
	}
	if !request.Difficulty.Valid() {
		return StringResult{}, ErrInvalidDifficulty
	}

	set := characterSets[request.Difficulty]
	rng := newRand(request.Seed)

	var sb strings.Builder
	sb.Grow(request.Size)
	for i := 0; i < request.Size; i++ {
		sb.WriteByte(set[rng.Intn(len(set))])
	}
	return StringResult{Challenge: sb.String(), Seed: request.Seed}, nil
}

// CharacterSet returns the alphabet used at difficulty d.
func CharacterSet(d Difficulty) string {
	return characterSets[ClampDifficulty(d)]
}
