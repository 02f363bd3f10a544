// Package romaji converts Japanese text to Latin script.
//
// Two mechanisms are provided:
//
//   - Kagome, a dictionary-backed Converter that reads kanji through the IPA
//     dictionary and romanizes the readings with Hepburn.
//   - Substitute, a deterministic kana table applied character by character,
//     trying two-kana combinations before single kana.
//
// Service combines them: it initializes the converter on demand, waits a
// bounded time for it, and falls back to Substitute whenever the converter
// is unavailable or fails. Service never returns an error to its caller.
package romaji
