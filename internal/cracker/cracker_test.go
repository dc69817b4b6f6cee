package cracker

import (
	"errors"
	"testing"

	"github.com/RowanDark/vigil/internal/freq"
	"github.com/RowanDark/vigil/internal/vigenere"
)

// A long letters-only English sample so per-column statistics are reliable.
const englishSample = "ITWASABRIGHTCOLDDAYINAPRILANDTHECLOCKSWERESTRIKINGTHIRTEEN" +
	"WINSTONSMITHHISCHINNUZZLEDINTOHISBREASTINANEFFORTTOESCAPETHEVILEWIND" +
	"SLIPPEDQUICKLYTHROUGHTHEGLASSDOORSOFVICTORYMANSIONSTHOUGHNOTQUICKLYENOUGH" +
	"TOPREVENTASWIRLOFGRITTYDUSTFROMENTERINGALONGWITHHIM" +
	"THEHALLWAYSMELTOFBOILEDCABBAGEANDOLDRAGMATSATONEENDOFITACOLOUREDPOSTER" +
	"TOOLARGEFORINDOORDISPLAYHADBEENTACKEDTOTHEWALLITDEPICTEDSIMPLYANENORMOUS" +
	"FACEMORETHANAMETREWIDETHEFACEOFAMANOFABOUTFORTYFIVEWITHAHEAVYBLACK" +
	"MOUSTACHEANDRUGGEDLYHANDSOMEFEATURESWINSTONMADEFORTHESTAIRSITWASNOUSE" +
	"TRYINGTHELIFTEVENATTHEBESTOFTIMESITWASSELDOMWORKINGANDATPRESENTTHE" +
	"ELECTRICCURRENTWASCUTOFFDURINGDAYLIGHTHOURSITWASPARTOFTHEECONOMYDRIVE" +
	"INPREPARATIONFORHATEWEEK"

func encryptSample(t *testing.T, key string) string {
	t.Helper()
	return string(vigenere.Encrypt([]byte(englishSample), []byte(key)))
}

func TestRecoverKeyAtKnownLength(t *testing.T) {
	for _, key := range []string{"LEMON", "KEY", "SIGNALS"} {
		ciphertext := encryptSample(t, key)
		got := RecoverKey([]byte(ciphertext), len(key))
		if string(got) != key {
			t.Fatalf("RecoverKey length %d = %s, want %s", len(key), got, key)
		}
	}
}

func TestAnalyzeWithKnownKeyLength(t *testing.T) {
	ciphertext := encryptSample(t, "LEMON")
	results, err := Analyze(ciphertext, Options{KeyLength: 5})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected a single result, got %d", len(results))
	}
	if results[0].Key != "LEMON" {
		t.Fatalf("recovered key = %s, want LEMON", results[0].Key)
	}
	if results[0].Plaintext != englishSample {
		t.Fatalf("plaintext does not round-trip")
	}
	if results[0].Source != SourceRecovered {
		t.Fatalf("source = %s, want %s", results[0].Source, SourceRecovered)
	}
}

func TestAnalyzeAutomaticDetection(t *testing.T) {
	ciphertext := encryptSample(t, "LEMON")
	results, err := Analyze(ciphertext, Options{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Key != "LEMON" {
		t.Fatalf("best key = %s, want LEMON", results[0].Key)
	}
	if results[0].Plaintext != englishSample {
		t.Fatalf("best plaintext does not match the original")
	}
}

func TestAnalyzeFallsBackToSweepOnShortText(t *testing.T) {
	// Too short for Kasiski repeats; the sweep still produces ranked output.
	results, err := Analyze("LXFOPVEFRNHR", Options{})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected best-effort results from the coincidence sweep")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if _, err := Analyze("123 456!", Options{}); !errors.Is(err, vigenere.ErrEmptyInput) {
		t.Fatalf("error = %v, want ErrEmptyInput", err)
	}
}

func TestAnalyzeInvalidKeyLength(t *testing.T) {
	for _, length := range []int{-1, 13} {
		_, err := Analyze("LXFOPVEFRNHR", Options{KeyLength: length})
		if !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("KeyLength %d: error = %v, want ErrInvalidKeyLength", length, err)
		}
	}
	if _, err := Analyze("LXFOPVEFRNHR", Options{KeyLength: 12}); err != nil {
		t.Fatalf("KeyLength 12 should be accepted, got %v", err)
	}
}

func TestAnalyzeExplicitKeySkipsDetection(t *testing.T) {
	results, err := Analyze("Lxfop vefrnhr!", Options{Key: "lemon"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
	if results[0].Source != SourceExplicit {
		t.Fatalf("source = %s, want %s", results[0].Source, SourceExplicit)
	}
	if results[0].Plaintext != "Attac katdawn!" {
		t.Fatalf("plaintext = %q", results[0].Plaintext)
	}
}

func TestTestKeysRanksCorrectKeyFirst(t *testing.T) {
	ciphertext := encryptSample(t, "LEMON")
	results, err := TestKeys(ciphertext, []string{"PEPPER", "LEMON", "MANGO"}, nil)
	if err != nil {
		t.Fatalf("TestKeys returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Key != "LEMON" {
		t.Fatalf("best key = %s, want LEMON", results[0].Key)
	}
	for _, r := range results[1:] {
		if r.Score <= results[0].Score {
			t.Fatalf("wrong key %s scored %f, not worse than %f", r.Key, r.Score, results[0].Score)
		}
	}
}

func TestTestKeysRejectsInvalidKey(t *testing.T) {
	if _, err := TestKeys("LXFOPVEFRNHR", []string{"LEM0N"}, nil); err == nil {
		t.Fatal("expected error for non-letter key")
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	ciphertext := encryptSample(t, "SIGNALS")
	opts := Options{TryKeys: []string{"LEMON", "KEY"}}
	first, err := Analyze(ciphertext, opts)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := Analyze(ciphertext, opts)
		if err != nil {
			t.Fatalf("Analyze returned error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result count changed between runs: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("result %d changed between runs: %+v vs %+v", i, first[i], again[i])
			}
		}
	}
}

func TestCustomScorerIsApplied(t *testing.T) {
	calls := 0
	scorer := func(letters []byte, plaintext string) float64 {
		calls++
		return freq.EnglishDeviation(letters)
	}
	ciphertext := encryptSample(t, "LEMON")
	if _, err := Analyze(ciphertext, Options{KeyLength: 5, Scorer: scorer}); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if calls == 0 {
		t.Fatal("custom scorer was never invoked")
	}
}
