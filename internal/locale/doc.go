// Package locale substitutes step content per language.
//
// A localization Set maps step identities to replacement content for one
// language. Sets are stored one per file:
//
//	language: fr
//	steps:
//	  0190b6a0-0000-7000-8000-000000000001:
//	    text:
//	      author: Alicia
//	      body: Bonjour
//
// Overlay.Adapt rewrites step content in place and never touches
// identities or jump targets. Replacement content must keep the step kind,
// and a phrase must keep its option keys, since conditions check them.
//
// The overlay captures the authored content as the base language when it
// is created, so adapting back to the base language restores it.
package locale
