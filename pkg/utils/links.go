// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"regexp"
	"strings"
)

// linkPattern matches http and https links up to whitespace, quotes or angle brackets.
var linkPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// sentence punctuation that is not part of a link written in prose
const trailingPunctuation = ".,!?;:)]}"

// ExtractLinks returns the http(s) links in text, deduplicated, in order of appearance.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	links := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		link := strings.TrimRight(m, trailingPunctuation)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	return links
}

// FirstLink returns the first link found in texts, searched in order, or "".
// It is used to find the join link of a series whose location or
// description carries one.
func FirstLink(texts ...string) string {
	for _, text := range texts {
		if links := ExtractLinks(text); len(links) > 0 {
			return links[0]
		}
	}
	return ""
}
