package utils

import (
	"github.com/abadojack/whatlanggo"
)

// Detection is whitelisted to the two languages the engine serves.
var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Rus: true,
	},
}

func WhatLang(query string) string {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang.String()
}

// IsEnglish reports whether the query already reads as english, in
// which case translation before embedding is wasted work.
func IsEnglish(query string) bool {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang == whatlanggo.Eng
}
