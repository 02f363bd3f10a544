package romaji

import (
	"strings"
	"unicode/utf8"
)

// kanaTable maps kana, and the two-kana combinations that read as one
// syllable, to Hepburn romanization.
var kanaTable = map[string]string{
	// Hiragana
	"あ": "a", "い": "i", "う": "u", "え": "e", "お": "o",
	"か": "ka", "き": "ki", "く": "ku", "け": "ke", "こ": "ko",
	"さ": "sa", "し": "shi", "す": "su", "せ": "se", "そ": "so",
	"た": "ta", "ち": "chi", "つ": "tsu", "て": "te", "と": "to",
	"な": "na", "に": "ni", "ぬ": "nu", "ね": "ne", "の": "no",
	"は": "ha", "ひ": "hi", "ふ": "fu", "へ": "he", "ほ": "ho",
	"ま": "ma", "み": "mi", "む": "mu", "め": "me", "も": "mo",
	"や": "ya", "ゆ": "yu", "よ": "yo",
	"ら": "ra", "り": "ri", "る": "ru", "れ": "re", "ろ": "ro",
	"わ": "wa", "を": "wo", "ん": "n",
	"が": "ga", "ぎ": "gi", "ぐ": "gu", "げ": "ge", "ご": "go",
	"ざ": "za", "じ": "ji", "ず": "zu", "ぜ": "ze", "ぞ": "zo",
	"だ": "da", "ぢ": "ji", "づ": "zu", "で": "de", "ど": "do",
	"ば": "ba", "び": "bi", "ぶ": "bu", "べ": "be", "ぼ": "bo",
	"ぱ": "pa", "ぴ": "pi", "ぷ": "pu", "ぺ": "pe", "ぽ": "po",

	"きゃ": "kya", "きゅ": "kyu", "きょ": "kyo",
	"しゃ": "sha", "しゅ": "shu", "しょ": "sho",
	"ちゃ": "cha", "ちゅ": "chu", "ちょ": "cho",
	"にゃ": "nya", "にゅ": "nyu", "にょ": "nyo",
	"ひゃ": "hya", "ひゅ": "hyu", "ひょ": "hyo",
	"みゃ": "mya", "みゅ": "myu", "みょ": "myo",
	"りゃ": "rya", "りゅ": "ryu", "りょ": "ryo",
	"ぎゃ": "gya", "ぎゅ": "gyu", "ぎょ": "gyo",
	"じゃ": "ja", "じゅ": "ju", "じょ": "jo",
	"びゃ": "bya", "びゅ": "byu", "びょ": "byo",
	"ぴゃ": "pya", "ぴゅ": "pyu", "ぴょ": "pyo",

	// Katakana
	"ア": "a", "イ": "i", "ウ": "u", "エ": "e", "オ": "o",
	"カ": "ka", "キ": "ki", "ク": "ku", "ケ": "ke", "コ": "ko",
	"サ": "sa", "シ": "shi", "ス": "su", "セ": "se", "ソ": "so",
	"タ": "ta", "チ": "chi", "ツ": "tsu", "テ": "te", "ト": "to",
	"ナ": "na", "ニ": "ni", "ヌ": "nu", "ネ": "ne", "ノ": "no",
	"ハ": "ha", "ヒ": "hi", "フ": "fu", "ヘ": "he", "ホ": "ho",
	"マ": "ma", "ミ": "mi", "ム": "mu", "メ": "me", "モ": "mo",
	"ヤ": "ya", "ユ": "yu", "ヨ": "yo",
	"ラ": "ra", "リ": "ri", "ル": "ru", "レ": "re", "ロ": "ro",
	"ワ": "wa", "ヲ": "wo", "ン": "n",
	"ガ": "ga", "ギ": "gi", "グ": "gu", "ゲ": "ge", "ゴ": "go",
	"ザ": "za", "ジ": "ji", "ズ": "zu", "ゼ": "ze", "ゾ": "zo",
	"ダ": "da", "ヂ": "ji", "ヅ": "zu", "デ": "de", "ド": "do",
	"バ": "ba", "ビ": "bi", "ブ": "bu", "ベ": "be", "ボ": "bo",
	"パ": "pa", "ピ": "pi", "プ": "pu", "ペ": "pe", "ポ": "po",
	"ヴ": "vu",

	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho",
	"チャ": "cha", "チュ": "chu", "チョ": "cho",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",

	// Loanword combinations
	"シェ": "she", "ジェ": "je", "チェ": "che",
	"ティ": "ti", "ディ": "di", "トゥ": "tu", "ドゥ": "du",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
}

// lookup returns the romanization of the longest table entry at the start
// of runes (two kana, then one) and how many runes it consumed.
func lookup(runes []rune) (string, int) {
	if len(runes) >= 2 {
		if r, ok := kanaTable[string(runes[:2])]; ok {
			return r, 2
		}
	}
	if r, ok := kanaTable[string(runes[:1])]; ok {
		return r, 1
	}
	return "", 0
}

// Substitute romanizes text character by character using the kana table.
//
// At each position a two-character combination is tried before a single
// character, so "きゃ" becomes "kya" rather than "ki" followed by an
// unmapped "ゃ". Characters not in the table are copied through unchanged.
// If the result is empty, the input is returned.
func Substitute(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(runes); {
		if r, n := lookup(runes[i:]); n > 0 {
			b.WriteString(r)
			i += n
			continue
		}
		b.WriteRune(runes[i])
		i++
	}

	if b.Len() == 0 {
		return text
	}
	return b.String()
}

// Hepburn romanizes a kana reading such as the ones a morphological
// analyzer produces.
//
// On top of the table lookup it understands the small tsu (っ, ッ), which
// doubles the following consonant ("ch" becomes "tch"), and the long vowel
// mark (ー), which repeats the previous vowel. Other characters are copied
// through.
func Hepburn(kana string) string {
	runes := []rune(kana)
	var b strings.Builder
	b.Grow(len(kana))
	geminate := false

	for i := 0; i < len(runes); {
		switch runes[i] {
		case 'っ', 'ッ':
			geminate = true
			i++
			continue
		case 'ー':
			if v, ok := lastVowel(b.String()); ok {
				b.WriteByte(v)
			}
			i++
			continue
		}

		r, n := lookup(runes[i:])
		if n == 0 {
			geminate = false
			b.WriteRune(runes[i])
			i++
			continue
		}
		if geminate {
			b.WriteString(doubled(r))
			geminate = false
		}
		b.WriteString(r)
		i += n
	}
	return b.String()
}

// doubled returns the consonant prefix a small tsu adds before syllable.
func doubled(syllable string) string {
	if strings.HasPrefix(syllable, "ch") {
		return "t"
	}
	c := syllable[0]
	if isVowel(c) || c == 'n' {
		return ""
	}
	return string(c)
}

func lastVowel(s string) (byte, bool) {
	if s == "" {
		return 0, false
	}
	c := s[len(s)-1]
	if !isVowel(c) {
		return 0, false
	}
	return c, true
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

// IsKana reports whether every rune of s is hiragana, katakana or the long
// vowel mark.
func IsKana(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 0x3041 && r <= 0x309F: // hiragana
		case r >= 0x30A0 && r <= 0x30FF: // katakana, including ー
		default:
			return false
		}
	}
	return true
}
