// Package taxcalc implements the interactive step-by-step tax calculation:
// a per-user session that collects salary, other income and deductions one
// question at a time, then compares the liability under the old and new
// Indian tax regimes. The pure slab arithmetic lives here too and is shared
// with the tax agent.
package taxcalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
)

const (
	sessionPrefix = "taxcalc:"

	// sessionTTL is the sliding window an unfinished calculation survives
	// without input.
	sessionTTL = 30 * time.Minute
)

// step is one question of the calculation dialog.
type step struct {
	Field         string
	Question      string
	QuestionHindi string
	Example       string
	MaxLimit      float64
}

// steps is the fixed question sequence.
var steps = []step{
	{
		Field:         "salaryIncome",
		Question:      "What is your annual salary income?",
		QuestionHindi: "आपकी सालाना सैलरी कितनी है?",
		Example:       "For example: 12 lakh or 1200000",
	},
	{
		Field:         "otherIncome",
		Question:      "Do you have any other taxable income like rental income, interest, or freelance? If yes, how much annually? Say zero if none.",
		QuestionHindi: "क्या आपकी कोई अन्य आय है जैसे किराया, ब्याज, या फ्रीलांस? अगर हां, तो कितनी? अगर नहीं तो शून्य बोलें।",
		Example:       "For example: 1 lakh or zero",
	},
	{
		Field:         "section80C",
		Question:      "How much have you invested in 80C deductions? This includes PF, PPF, ELSS, LIC, tuition fees. Maximum limit is 1.5 lakh.",
		QuestionHindi: "80C में कितना निवेश किया है? इसमें PF, PPF, ELSS, LIC, ट्यूशन फीस शामिल है। अधिकतम सीमा 1.5 लाख है।",
		Example:       "For example: 1.5 lakh or 150000",
		MaxLimit:      Max80C,
	},
	{
		Field:         "otherDeductions",
		Question:      "Any other deductions like HRA, education loan interest, or charitable donations? Say the total amount or zero if none.",
		QuestionHindi: "कोई अन्य छूट जैसे HRA, एजुकेशन लोन ब्याज, या दान? कुल राशि बताएं या शून्य बोलें।",
		Example:       "For example: 20000 or zero",
	},
}

// Session is the persisted state of one in-progress calculation.
type Session struct {
	Step      int                `json:"step"`
	Data      map[string]float64 `json:"data"`
	StartedAt time.Time          `json:"started_at"`
}

// Status is the externally visible view of a session.
type Status struct {
	Step       int                `json:"step"`
	TotalSteps int                `json:"total_steps"`
	Collected  map[string]float64 `json:"collected"`
}

// RegimeBreakdown is the full computation for one regime.
type RegimeBreakdown struct {
	TaxableIncome float64 `json:"taxable_income"`
	Deductions    float64 `json:"deductions"`
	TaxBeforeCess float64 `json:"tax_before_cess"`
	Cess          float64 `json:"cess"`
	TotalTax      float64 `json:"total_tax"`
	EffectiveRate float64 `json:"effective_rate"`
}

// Breakdown is the final result of a completed calculation.
type Breakdown struct {
	GrossIncome    float64         `json:"gross_income"`
	OldRegime      RegimeBreakdown `json:"old_regime"`
	NewRegime      RegimeBreakdown `json:"new_regime"`
	Recommendation string          `json:"recommendation"`
	Savings        float64         `json:"savings"`
	Reason         string          `json:"reason"`
}

// Prompt is one dialog response from the flow: either the next question or
// the final breakdown.
type Prompt struct {
	Response      string     `json:"response"`
	ResponseHindi string     `json:"response_hindi"`
	AwaitingInput bool       `json:"awaiting_input"`
	Completed     bool       `json:"completed"`
	Step          int        `json:"step"`
	TotalSteps    int        `json:"total_steps"`
	Field         string     `json:"field,omitempty"`
	Result        *Breakdown `json:"result,omitempty"`
}

// triggerPatterns match utterances that start a calculation, across the
// supported languages and common code-switched phrasings.
var triggerPatterns = []string{
	"calculate my tax",
	"calculate tax",
	"tax calculation",
	"tax calculator",
	"how much tax",
	"tax kitna",
	"tax calculate karo",
	"mera tax",
	"टैक्स कैलकुलेट",
	"टैक्स कितना",
}

// IsTrigger reports whether the utterance asks to start a tax calculation.
func IsTrigger(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range triggerPatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// Flow drives per-user calculation sessions over the shared store.
type Flow struct {
	store  *memstore.Store
	logger logging.Logger
}

// Options configures construction of a Flow.
type Options struct {
	Logger logging.Logger
}

// NewFlow constructs a calculator flow over the shared store.
func NewFlow(store *memstore.Store, optFns ...func(o *Options)) *Flow {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Flow{store: store, logger: opts.Logger}
}

func sessionKey(userID string) string {
	return sessionPrefix + userID + ":session"
}

// Active reports whether the user has an unfinished calculation session.
func (f *Flow) Active(userID string) bool {
	return f.store.Has(sessionKey(userID))
}

// Start opens a fresh session and returns the first question. The triggering
// utterance itself is never interpreted as an amount.
func (f *Flow) Start(userID string) Prompt {
	session := Session{Data: make(map[string]float64), StartedAt: time.Now().UTC()}
	f.save(userID, session)
	f.logger.Debug("tax calculation started for user %s", userID)

	first := steps[0]
	return Prompt{
		Response:      fmt.Sprintf("Let's calculate your tax! %s", first.Question),
		ResponseHindi: fmt.Sprintf("चलिए आपका टैक्स कैलकुलेट करते हैं! %s", first.QuestionHindi),
		AwaitingInput: true,
		Step:          0,
		TotalSteps:    len(steps),
		Field:         first.Field,
	}
}

// Advance feeds one user utterance into the session. An unparseable amount
// re-asks the current question without advancing; a parsed amount is clamped
// to the step's limit and stored. Answering the last question computes the
// breakdown and deletes the session.
func (f *Flow) Advance(userID, input string) Prompt {
	session, ok := f.session(userID)
	if !ok {
		return f.Start(userID)
	}
	current := steps[session.Step]

	amount, ok := ParseAmount(input)
	if !ok {
		return Prompt{
			Response: fmt.Sprintf("I didn't catch that. Please say the amount clearly. %s %s",
				current.Question, current.Example),
			ResponseHindi: fmt.Sprintf("मुझे समझ नहीं आया। कृपया राशि स्पष्ट बताएं। %s", current.QuestionHindi),
			AwaitingInput: true,
			Step:          session.Step,
			TotalSteps:    len(steps),
			Field:         current.Field,
		}
	}

	if current.MaxLimit > 0 && amount > current.MaxLimit {
		f.logger.Debug("amount %.0f capped to limit %.0f for %s", amount, current.MaxLimit, current.Field)
		amount = current.MaxLimit
	}
	session.Data[current.Field] = amount
	session.Step++

	if session.Step < len(steps) {
		next := steps[session.Step]
		f.save(userID, session)
		return Prompt{
			Response: fmt.Sprintf("Got it! ₹%s noted. Now, %s",
				FormatAmount(amount), next.Question),
			ResponseHindi: fmt.Sprintf("ठीक है! ₹%s नोट किया। अब, %s",
				FormatAmount(amount), next.QuestionHindi),
			AwaitingInput: true,
			Step:          session.Step,
			TotalSteps:    len(steps),
			Field:         next.Field,
		}
	}

	result := Compute(session.Data)
	f.store.Delete(sessionKey(userID))
	f.logger.Debug("tax calculation completed for user %s", userID)

	return Prompt{
		Response:      buildFinalResponse(result),
		ResponseHindi: buildFinalResponseHindi(result),
		Completed:     true,
		Step:          len(steps),
		TotalSteps:    len(steps),
		Result:        &result,
	}
}

// Cancel drops the user's session, reporting whether one existed.
func (f *Flow) Cancel(userID string) bool {
	return f.store.Delete(sessionKey(userID))
}

// SessionStatus returns the user's session progress, or nil when no session
// exists.
func (f *Flow) SessionStatus(userID string) *Status {
	session, ok := f.session(userID)
	if !ok {
		return nil
	}
	collected := make(map[string]float64, len(session.Data))
	for k, v := range session.Data {
		collected[k] = v
	}
	return &Status{Step: session.Step, TotalSteps: len(steps), Collected: collected}
}

func (f *Flow) session(userID string) (Session, bool) {
	v, ok := f.store.Get(sessionKey(userID))
	if !ok {
		return Session{}, false
	}
	session, ok := v.(Session)
	return session, ok
}

func (f *Flow) save(userID string, session Session) {
	f.store.Set(sessionKey(userID), session, sessionTTL)
}

var (
	zeroWords = regexp.MustCompile(`^(zero|nil|nothing|none|no|nahi|nhin|kuch nahi|शून्य|नहीं)$`)
	lakhRe    = regexp.MustCompile(`(\d+\.?\d*)\s*(lakh|lac|l)\b`)
	// \b is ASCII-only in RE2 and never matches after Devanagari, so the
	// word boundary sits inside the ASCII alternatives only.
	thousandRe  = regexp.MustCompile(`(\d+\.?\d*)\s*(thousand\b|k\b|हजार)`)
	digitsRe    = regexp.MustCompile(`(\d+)`)
	numberWords = []struct {
		word  string
		value float64
	}{
		{"twenty five", 25}, {"forty five", 45}, {"seventy five", 75},
		{"eleven", 11}, {"twelve", 12}, {"fifteen", 15}, {"twenty", 20},
		{"thirty", 30}, {"forty", 40}, {"fifty", 50}, {"hundred", 100},
		{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
		{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
	}
)

// ParseAmount extracts a rupee amount from a voice utterance. It understands
// zero words in English and Hindi, lakh and thousand notation with digits or
// number words, and plain digits. The second return is false when no amount
// can be read.
func ParseAmount(input string) (float64, bool) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return 0, false
	}

	if zeroWords.MatchString(text) {
		return 0, true
	}

	if m := lakhRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 100000, true
		}
	}

	if m := thousandRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v * 1000, true
		}
	}

	if m := digitsRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v, true
		}
	}

	// Longest match first so "twenty five lakh" is not read as twenty.
	for _, nw := range numberWords {
		if strings.Contains(text, nw.word) {
			switch {
			case strings.Contains(text, "lakh") || strings.Contains(text, "lac"):
				return nw.value * 100000, true
			case strings.Contains(text, "thousand") || strings.Contains(text, "k"):
				return nw.value * 1000, true
			default:
				return nw.value, true
			}
		}
	}

	return 0, false
}

// Compute calculates the breakdown under both regimes from the collected
// inputs. The old regime applies the standard deduction, 80C (capped) and
// other deductions; the new regime only the standard deduction. Ties
// recommend the old regime.
func Compute(data map[string]float64) Breakdown {
	gross := data["salaryIncome"] + data["otherIncome"]
	section80C := math.Min(data["section80C"], Max80C)

	oldDeductions := StandardDeduction + section80C + data["otherDeductions"]
	newDeductions := float64(StandardDeduction)

	old := regimeBreakdown(gross, oldDeductions, RegimeOld)
	current := regimeBreakdown(gross, newDeductions, RegimeNew)
	savings := math.Abs(old.TotalTax - current.TotalTax)

	recommendation := RegimeNew
	reason := fmt.Sprintf("New regime saves ₹%s with lower tax slabs", FormatAmount(savings))
	if old.TotalTax <= current.TotalTax {
		recommendation = RegimeOld
		reason = fmt.Sprintf("Old regime saves ₹%s due to your deductions", FormatAmount(savings))
	}

	return Breakdown{
		GrossIncome:    gross,
		OldRegime:      old,
		NewRegime:      current,
		Recommendation: recommendation,
		Savings:        savings,
		Reason:         reason,
	}
}

func regimeBreakdown(gross, deductions float64, regime string) RegimeBreakdown {
	taxable := math.Max(0, gross-deductions)

	var tax float64
	if regime == RegimeOld {
		tax = oldRegimeSlabTax(taxable)
	} else {
		tax = newRegimeSlabTax(taxable)
	}
	cess := tax * cessRate

	var rate float64
	if gross > 0 {
		rate = math.Round((tax+cess)/gross*1000) / 10
	}

	return RegimeBreakdown{
		TaxableIncome: taxable,
		Deductions:    deductions,
		TaxBeforeCess: math.Round(tax),
		Cess:          math.Round(cess),
		TotalTax:      math.Round(tax + cess),
		EffectiveRate: rate,
	}
}

func buildFinalResponse(r Breakdown) string {
	var sb strings.Builder
	sb.WriteString("Tax Calculation Complete! ")
	fmt.Fprintf(&sb, "Your gross income is ₹%s. ", FormatAmount(r.GrossIncome))
	fmt.Fprintf(&sb, "Under Old Regime: Taxable income is ₹%s, Tax is ₹%s. ",
		FormatAmount(r.OldRegime.TaxableIncome), FormatAmount(r.OldRegime.TotalTax))
	fmt.Fprintf(&sb, "Under New Regime: Taxable income is ₹%s, Tax is ₹%s. ",
		FormatAmount(r.NewRegime.TaxableIncome), FormatAmount(r.NewRegime.TotalTax))
	fmt.Fprintf(&sb, "%s. ", r.Reason)
	fmt.Fprintf(&sb, "I recommend the %s REGIME for you.", strings.ToUpper(r.Recommendation))
	return sb.String()
}

func buildFinalResponseHindi(r Breakdown) string {
	var sb strings.Builder
	sb.WriteString("टैक्स कैलकुलेशन पूरा हुआ! ")
	fmt.Fprintf(&sb, "आपकी कुल आय ₹%s है। ", FormatAmount(r.GrossIncome))
	fmt.Fprintf(&sb, "पुरानी व्यवस्था में: कर योग्य आय ₹%s है, टैक्स ₹%s है। ",
		FormatAmount(r.OldRegime.TaxableIncome), FormatAmount(r.OldRegime.TotalTax))
	fmt.Fprintf(&sb, "नई व्यवस्था में: कर योग्य आय ₹%s है, टैक्स ₹%s है। ",
		FormatAmount(r.NewRegime.TaxableIncome), FormatAmount(r.NewRegime.TotalTax))
	if r.Recommendation == RegimeOld {
		fmt.Fprintf(&sb, "पुरानी व्यवस्था से ₹%s बचत होगी। मैं पुरानी व्यवस्था की सलाह देता हूं।", FormatAmount(r.Savings))
	} else {
		fmt.Fprintf(&sb, "नई व्यवस्था से ₹%s बचत होगी। मैं नई व्यवस्था की सलाह देता हूं।", FormatAmount(r.Savings))
	}
	return sb.String()
}
