// Package translate resolves per-locale strings for every extracted key and
// writes one resource file per (locale, namespace).
//
// Resolution for a base key K of namespace N:
//
//  1. Variants are the table strings equal to K or starting with K + "_".
//  2. For each variant S, a row "N:S" wins over the unqualified row "S".
//  3. The locale's source column is read; "fr" reads the informal "fr@tu" column.
//  4. Missing values fall back to the parent locale ("en_UK" → "en").
//  5. Values equal to the parent's, or for "fr" to the extracted default, are skipped.
//
// The translation table is fetched once per Engine and kept in a TableCache
// until ResetCache is called.
package translate
