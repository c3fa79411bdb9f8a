// Package idalloc computes the next free item id for a category.
//
// Television ids carry a screen-size bucket: TV<size><seq>, e.g. TV55003.
// Every other category uses a fixed prefix and a sequence: L001, NM014.
// Sequences are three digits, so each bucket holds at most 999 ids.
//
// Allocation is a pure function of the existing names. Two callers working
// from the same snapshot get the same id; the unique name column rejects
// the second insert.
package idalloc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/erazemk/magazyn/internal/model"
)

// MaxSequence is the largest sequence that fits the three-digit format.
const MaxSequence = 999

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidSize     = errors.New("invalid tv size")
)

// ExhaustedError is returned when a bucket has no free sequence left.
// Bucket is the TV size (e.g. "55") or the category prefix.
type ExhaustedError struct {
	Bucket string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no free ids left for %s (all %d used)", e.Bucket, MaxSequence)
}

var tvPattern = regexp.MustCompile(`^TV(55|65|75|85)(\d{3})$`)

// Next returns the next free id for category. size selects the TV bucket and
// is ignored for other categories; an empty size lets the allocator pick one.
func Next(category, size string, existing []string) (string, error) {
	cat, ok := model.LookupCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if cat.Name == model.CategoryTV {
		return nextTV(size, existing)
	}
	return nextPrefixed(cat.Prefix, existing)
}

// Valid reports whether name is a well-formed id for category.
func Valid(category, name string) bool {
	cat, ok := model.LookupCategory(category)
	if !ok {
		return false
	}
	var seq string
	if cat.Name == model.CategoryTV {
		m := tvPattern.FindStringSubmatch(name)
		if m == nil {
			return false
		}
		seq = m[2]
	} else {
		m := prefixPattern(cat.Prefix).FindStringSubmatch(name)
		if m == nil || len(m[1]) != 3 {
			return false
		}
		seq = m[1]
	}
	// Sequences start at 001.
	return seq != "000"
}

// tvUsage holds the used sequences and the highest one per size.
type tvUsage struct {
	used map[string]map[int]bool
	max  map[string]int
}

func scanTV(existing []string) tvUsage {
	u := tvUsage{used: map[string]map[int]bool{}, max: map[string]int{}}
	for _, s := range model.TVSizes {
		u.used[s] = map[int]bool{}
	}
	for _, name := range existing {
		m := tvPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		seq, _ := strconv.Atoi(m[2])
		if seq == 0 {
			continue
		}
		u.used[m[1]][seq] = true
		if seq > u.max[m[1]] {
			u.max[m[1]] = seq
		}
	}
	return u
}

// free returns the next sequence for size: first above the current max,
// then the lowest gap. It returns 0 when the bucket is full.
func (u tvUsage) free(size string) int {
	for seq := u.max[size] + 1; seq <= MaxSequence; seq++ {
		if !u.used[size][seq] {
			return seq
		}
	}
	for seq := 1; seq <= MaxSequence; seq++ {
		if !u.used[size][seq] {
			return seq
		}
	}
	return 0
}

func nextTV(size string, existing []string) (string, error) {
	u := scanTV(existing)

	if size != "" {
		if !model.ValidTVSize(size) {
			return "", fmt.Errorf("%w: %q", ErrInvalidSize, size)
		}
		seq := u.free(size)
		if seq == 0 {
			return "", &ExhaustedError{Bucket: size}
		}
		return formatTV(size, seq), nil
	}

	// No size requested: continue a size that is already in use.
	for _, s := range model.TVSizes {
		if u.max[s] > 0 {
			if seq := u.free(s); seq != 0 {
				return formatTV(s, seq), nil
			}
		}
	}
	for _, s := range model.TVSizes {
		if u.max[s] == 0 {
			return formatTV(s, 1), nil
		}
	}
	return "", &ExhaustedError{Bucket: "TV"}
}

func formatTV(size string, seq int) string {
	return fmt.Sprintf("TV%s%03d", size, seq)
}

func prefixPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
}

func nextPrefixed(prefix string, existing []string) (string, error) {
	re := prefixPattern(prefix)
	used := make(map[int]bool)
	for _, name := range existing {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}

	next := 1
	for used[next] {
		next++
	}
	if next > MaxSequence {
		return "", &ExhaustedError{Bucket: prefix}
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}
