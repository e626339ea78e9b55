package sanitize

import (
	"strings"
	"testing"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

func TestString_StripsMarkupAndScripts(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain", "Ahmed Hassan", "Ahmed Hassan"},
		{"arabic", "أحمد حسن", "أحمد حسن"},
		{"empty", "", ""},
		{"bold", "<b>Hello</b>", "Hello"},
		{"script element", "<script>alert(1)</script>Hi", "Hi"},
		{"javascript protocol", "javascript:alert(1)", "alert(1)"},
		{"mixed case protocol", "JaVaScRiPt:go()", "go()"},
		{"vbscript protocol", "vbscript:msgbox", "msgbox"},
		{"handler", "Click onload=doEvil()", "Click doEvil()"},
		{"ampersand kept literal", "Tom & Jerry", "Tom & Jerry"},
		{"greater than kept literal", "5 > 3", "5 > 3"},
		{"nested protocol", "javajavascript:script:x", "x"},
		{"data uri", "data:text/html;base64,AAAA", "text/html;base64,AAAA"},
		{"prose with data label", "Personal data: I lost my job in March.", "Personal data: I lost my job in March."},
		{"prose with trailing label", "Missing data:", "Missing data:"},
		{"prose with script word", "Reason for javascript: course fees", "Reason for javascript: course fees"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := String(tc.in); got != tc.want {
				t.Fatalf("String(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestString_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		"  padded  ",
		"<b>bold</b> and <i>italic</i>",
		"<img src=x onerror=alert(1)>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;b&amp;gt;double&amp;lt;/b&amp;gt;",
		"<<script>script>alert(1)<</script>/script>",
		"javascript:javascript:alert(1)",
		"data:text/html;base64,AAAA",
		"onclick=onmouseover=x",
		"Tom & Jerry <3",
		"line one\nline two\ttab",
		strings.Repeat("&amp;", 12) + "lt;b&gt;",
		"I have been unemployed since 2023 & rely on family support.",
	}
	for _, in := range inputs {
		once := String(in)
		twice := String(once)
		if once != twice {
			t.Errorf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
		if strings.Contains(strings.ToLower(once), "javascript:") {
			t.Errorf("protocol survived for %q: %q", in, once)
		}
	}
}

func TestNew_IndependentInstances(t *testing.T) {
	a, b := New(), New()
	if a.String("<p>x</p>") != b.String("<p>x</p>") {
		t.Fatalf("instances disagree")
	}
}

func TestRecord_SanitizesStringsOnly(t *testing.T) {
	dep := 2
	inc := 1200.0
	r := domain.ApplicationRecord{
		FullName:           "<b>Ahmed</b> Hassan",
		Gender:             domain.Gender("<i>male</i>"),
		City:               "Riyadh",
		Dependents:         &dep,
		MonthlyIncome:      &inc,
		Currency:           domain.CurrencyUSD,
		FinancialSituation: "javascript:alert(1) struggling",
		ReasonForApplying:  "Supporting data: rent receipts and my last three payslips.",
	}
	out := Record(r)
	if out.FullName != "Ahmed Hassan" {
		t.Errorf("FullName = %q", out.FullName)
	}
	if out.Gender != domain.GenderMale {
		t.Errorf("Gender = %q", out.Gender)
	}
	if out.City != "Riyadh" || out.Currency != domain.CurrencyUSD {
		t.Errorf("clean fields changed: %+v", out)
	}
	if out.FinancialSituation != "alert(1) struggling" {
		t.Errorf("FinancialSituation = %q", out.FinancialSituation)
	}
	if out.ReasonForApplying != r.ReasonForApplying {
		t.Errorf("prose narrative altered: %q", out.ReasonForApplying)
	}
	if *out.Dependents != 2 || *out.MonthlyIncome != 1200 {
		t.Errorf("numbers changed")
	}
	if r.FullName != "<b>Ahmed</b> Hassan" {
		t.Errorf("input record mutated")
	}
	if out.Dependents == r.Dependents {
		t.Errorf("output shares numeric pointers with input")
	}
}
