package receipt

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoAmount is returned when no plausible monetary amount is found.
var ErrNoAmount = errors.New("no amount detected")

// Suggestion is the amount picked from a receipt.
type Suggestion struct {
	Amount     decimal.Decimal `json:"amount"`
	Confidence float64         `json:"confidence"`
	Raw        string          `json:"raw"`
}

var (
	// Ordered from most to least specific; keyword and currency matches keep
	// their prefix so scoring can see it.
	candidatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:jumlah(?:\s+transfer)?|total(?:\s+bayar|\s+pembayaran)?|grand\s+total|transfer)\s*:?\s*(?:rp|idr)?\.?\s*[0-9][0-9.,]*`),
		regexp.MustCompile(`(?i)(?:rp|idr)\.?\s*[0-9][0-9.,]*`),
		regexp.MustCompile(`[0-9]{1,3}(?:[.,][0-9]{3})+(?:[.,][0-9]{2})?`),
		regexp.MustCompile(`[0-9]{5,}`),
	}
	ribuRE     = regexp.MustCompile(`(?i)\b([1-9][0-9]{0,3})\s*[,.:;-]?\s*ribu\b`)
	numberTail = regexp.MustCompile(`[0-9][0-9.,]*$`)
	centsRE    = regexp.MustCompile(`[.,][0-9]{2}$`)
)

// Candidates returns the amount-like substrings of text, most specific
// patterns first. Text already claimed by an earlier pattern is skipped.
func Candidates(text string) []string {
	text = normalizeText(text)
	var out []string
	seen := map[string]bool{}
	covered := make([]bool, len(text))
	for _, re := range candidatePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if covered[loc[0]] {
				continue
			}
			raw := strings.TrimRight(strings.TrimSpace(text[loc[0]:loc[1]]), ".,")
			for i := loc[0]; i < loc[1]; i++ {
				covered[i] = true
			}
			if raw == "" || seen[raw] {
				continue
			}
			seen[raw] = true
			out = append(out, raw)
		}
	}
	return out
}

// ParseAmount reads the number at the end of a candidate. A trailing
// separator followed by exactly two digits is a decimal part; every other
// separator groups thousands. "Rp10.000,00" and "7,500.00" both parse.
func ParseAmount(raw string) (decimal.Decimal, error) {
	num := numberTail.FindString(strings.TrimSpace(raw))
	if num == "" {
		return decimal.Zero, ErrNoAmount
	}
	intPart, frac := num, ""
	if centsRE.MatchString(num) {
		intPart, frac = num[:len(num)-3], num[len(num)-2:]
	}
	digits := onlyDigits(intPart)
	if digits == "" {
		return decimal.Zero, ErrNoAmount
	}
	if frac != "" {
		digits += "." + frac
	}
	return decimal.NewFromString(digits)
}

// plausible rejects numbers that look like phone numbers, reference ids or
// dates rather than money.
func plausible(raw string) bool {
	low := strings.ToLower(raw)
	if strings.Contains(low, "rp") || strings.Contains(low, "idr") {
		return true
	}
	d := onlyDigits(raw)
	if d == "" || d[0] == '0' {
		return false
	}
	if strings.ContainsAny(raw, ".,") {
		return len(d) >= 3
	}
	if len(d) < 2 || len(d) > 7 {
		return false
	}
	if len(d) >= 5 && !strings.HasSuffix(d, "000") && !strings.HasSuffix(d, "500") {
		return false
	}
	return true
}

func score(raw string) int {
	s := 0
	low := strings.ToLower(raw)
	if strings.Contains(low, "rp") || strings.Contains(low, "idr") {
		s += 10
	}
	if strings.Contains(low, "total") || strings.Contains(low, "jumlah") {
		s += 8
	}
	if strings.ContainsAny(raw, ".,") {
		s += 5
	}
	if strings.HasSuffix(raw, ",00") || strings.HasSuffix(raw, ".00") {
		s += 3
	}
	if len(onlyDigits(raw)) >= 4 {
		s++
	}
	return s
}

// maxScore is the score of a candidate that has every signal.
const maxScore = 27

// BestAmount picks the most likely total among the candidates of text:
// currency markers first, then total keywords, then grouping separators.
// Ties prefer the larger amount. "400 ribu" is understood as 400000 when
// nothing else is found.
func BestAmount(text string) (Suggestion, error) {
	type cand struct {
		amt   decimal.Decimal
		raw   string
		score int
	}
	var cands []cand
	for _, raw := range Candidates(text) {
		if !plausible(raw) {
			continue
		}
		amt, err := ParseAmount(raw)
		if err != nil || !amt.IsPositive() {
			continue
		}
		cands = append(cands, cand{amt: amt, raw: raw, score: score(raw)})
	}
	if len(cands) == 0 {
		if m := ribuRE.FindStringSubmatch(text); m != nil {
			n, _ := decimal.NewFromString(m[1])
			return Suggestion{Amount: n.Mul(decimal.NewFromInt(1000)), Confidence: 0.4, Raw: m[0]}, nil
		}
		return Suggestion{}, ErrNoAmount
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.amt.Equal(b.amt) {
			return a.amt.GreaterThan(b.amt)
		}
		return len(a.raw) > len(b.raw)
	})
	best := cands[0]
	conf := float64(best.score) / maxScore
	if conf > 1 {
		conf = 1
	}
	return Suggestion{Amount: best.amt, Confidence: conf, Raw: best.raw}, nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func normalizeText(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
