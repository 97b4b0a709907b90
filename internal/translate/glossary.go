// Package translate renders the English explanation into a regional language
// without letting the translator touch numbers, units or pinned phrases.
package translate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/labsense/internal/explain"
	"github.com/ppiankov/labsense/internal/mask"
)

// glossary maps English phrases to their approved translations. Phrases are
// matched case-insensitively, longest first. A translation is the literal
// phrase with no terminator; only the disclaimer, a whole sentence, keeps one.
var glossary = map[string]map[string]string{
	explain.Disclaimer: {
		"mr": "हा सारांश फक्त तुमच्या अहवालावर छापलेली मूल्ये आणि संदर्भ श्रेणी पुन्हा सांगतो आणि हा वैद्यकीय सल्ला नाही, म्हणून कृपया या निकालांबद्दल तुमच्या डॉक्टरांचा सल्ला घ्या.",
		"hi": "यह सारांश केवल आपकी रिपोर्ट पर छपे मान और संदर्भ सीमाएँ दोहराता है और यह चिकित्सीय सलाह नहीं है, इसलिए कृपया इन परिणामों के बारे में अपने डॉक्टर से परामर्श करें।",
	},
	"below the printed reference range": {
		"mr": "अहवालावर छापलेल्या संदर्भ श्रेणीपेक्षा कमी",
		"hi": "रिपोर्ट पर छपी संदर्भ सीमा से कम",
	},
	"above the printed reference range": {
		"mr": "अहवालावर छापलेल्या संदर्भ श्रेणीपेक्षा जास्त",
		"hi": "रिपोर्ट पर छपी संदर्भ सीमा से अधिक",
	},
	"below the printed minimum": {
		"mr": "छापलेल्या किमान मर्यादेपेक्षा कमी",
		"hi": "छपी न्यूनतम सीमा से कम",
	},
	"above the printed maximum": {
		"mr": "छापलेल्या कमाल मर्यादेपेक्षा जास्त",
		"hi": "छपी अधिकतम सीमा से अधिक",
	},
	"outside the printed reference range": {
		"mr": "अहवालावर छापलेल्या संदर्भ श्रेणीच्या बाहेर",
		"hi": "रिपोर्ट पर छपी संदर्भ सीमा से बाहर",
	},
	"printed reference range": {
		"mr": "अहवालावर छापलेली संदर्भ श्रेणी",
		"hi": "रिपोर्ट पर छपी संदर्भ सीमा",
	},
	"reference range": {
		"mr": "संदर्भ श्रेणी",
		"hi": "संदर्भ सीमा",
	},
	"consult your doctor": {
		"mr": "तुमच्या डॉक्टरांचा सल्ला घ्या",
		"hi": "अपने डॉक्टर से परामर्श करें",
	},
	"please show this report to your doctor": {
		"mr": "कृपया हा अहवाल तुमच्या डॉक्टरांना दाखवा",
		"hi": "कृपया यह रिपोर्ट अपने डॉक्टर को दिखाएँ",
	},
	"fasting blood sugar": {
		"mr": "उपासाचा रक्तातील साखर",
		"hi": "उपवास के समय की रक्त शर्करा",
	},
	"slightly high": {
		"mr": "थोडी जास्त",
		"hi": "थोड़ी अधिक",
	},
	"normal": {
		"mr": "सामान्य",
		"hi": "सामान्य",
	},
	"below": {
		"mr": "कमी",
		"hi": "कम",
	},
	"above": {
		"mr": "जास्त",
		"hi": "अधिक",
	},
}

// glossaryPattern is one alternation over every phrase. Go's regexp prefers
// the leftmost alternative, so phrases are ordered longest first.
var glossaryPattern = compileGlossary()

func compileGlossary() *regexp.Regexp {
	phrases := make([]string, 0, len(glossary))
	for phrase := range glossary {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	alts := make([]string, len(phrases))
	for i, phrase := range phrases {
		alts[i] = phrasePattern(phrase)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

// phrasePattern matches inner whitespace loosely and adds word boundaries
// only where the phrase starts or ends on a word character.
func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	p := strings.Join(words, `\s+`)

	if r, _ := utf8.DecodeRuneInString(phrase); isWord(r) {
		p = `\b` + p
	}
	if r, _ := utf8.DecodeLastRuneInString(phrase); isWord(r) {
		p += `\b`
	}
	return p
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func glossaryKey(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// glossaryIndex is the glossary keyed by normalized lower-case phrase
var glossaryIndex = func() map[string]map[string]string {
	index := make(map[string]map[string]string, len(glossary))
	for phrase, translations := range glossary {
		index[glossaryKey(phrase)] = translations
	}
	return index
}()

// Lookup returns the approved translation of a glossary phrase
func Lookup(phrase, lang string) (string, bool) {
	t, ok := glossaryIndex[glossaryKey(norm.NFC.String(phrase))][lang]
	return t, ok
}

// ApplyGlossary replaces every glossary phrase that has a translation for
// lang with a token restoring to that translation.
func ApplyGlossary(text, lang string, tm *mask.TokenMap) string {
	text = norm.NFC.String(text)
	return glossaryPattern.ReplaceAllStringFunc(text, func(match string) string {
		translation, ok := Lookup(match, lang)
		if !ok {
			return match
		}
		return tm.Protect(match, translation)
	})
}
