// Package render turns packed files into a single document in one of three
// styles: plain, markdown or xml.
package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"
)

// Output styles.
const (
	StylePlain    = "plain"
	StyleMarkdown = "markdown"
	StyleXML      = "xml"
)

const (
	plainRule     = "================================================================"
	plainFileRule = "================"
)

// File is one packed file.
type File struct {
	Path     string
	Content  string
	Language string
}

// Options controls document layout.
type Options struct {
	Style              string
	HeaderText         string
	FileSummary        bool
	DirectoryStructure bool
	ShowLineNumbers    bool
	// ParsableStyle escapes content so the document stays well formed for
	// the chosen style.
	ParsableStyle bool
	// Notes are added to the file summary, one line each, e.g. to record
	// that content was compressed.
	Notes []string
}

// Stats summarizes a rendered document.
type Stats struct {
	Files  int
	Chars  int
	Tokens int
}

// Render writes files to w. Files are rendered in the order given.
func Render(w io.Writer, files []File, opts Options) (Stats, error) {
	var stats Stats
	for _, f := range files {
		stats.Files++
		stats.Chars += utf8.RuneCountInString(f.Content)
		stats.Tokens += EstimateTokens(f.Content)
	}

	bw := bufio.NewWriter(w)
	var err error
	switch opts.Style {
	case StylePlain, "":
		err = renderPlain(bw, files, opts, stats)
	case StyleMarkdown:
		err = renderMarkdown(bw, files, opts, stats)
	case StyleXML:
		err = renderXML(bw, files, opts, stats)
	default:
		return Stats{}, fmt.Errorf("unknown output style %q", opts.Style)
	}
	if err != nil {
		return Stats{}, err
	}
	if err := bw.Flush(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// EstimateTokens approximates an LLM token count at four characters per
// token.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

func summaryLines(opts Options, stats Stats) []string {
	lines := []string{
		"This file is a merged representation of the codebase.",
		fmt.Sprintf("Files: %d", stats.Files),
		fmt.Sprintf("Characters: %d", stats.Chars),
		fmt.Sprintf("Estimated tokens: %d", stats.Tokens),
	}
	return append(lines, opts.Notes...)
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func renderPlain(w *bufio.Writer, files []File, opts Options, stats Stats) error {
	section := func(title string) {
		fmt.Fprintf(w, "%s\n%s\n%s\n", plainRule, title, plainRule)
	}

	if opts.HeaderText != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimRight(opts.HeaderText, "\n"))
	}
	if opts.FileSummary {
		section("File Summary")
		for _, line := range summaryLines(opts, stats) {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
	if opts.DirectoryStructure {
		section("Directory Structure")
		fmt.Fprintln(w, Tree(paths(files)))
	}

	section("Files")
	for _, f := range files {
		fmt.Fprintf(w, "\n%s\nFile: %s\n%s\n", plainFileRule, f.Path, plainFileRule)
		fmt.Fprintln(w, body(f.Content, opts.ShowLineNumbers))
	}
	return nil
}

func renderMarkdown(w *bufio.Writer, files []File, opts Options, stats Stats) error {
	if opts.HeaderText != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimRight(opts.HeaderText, "\n"))
	}
	if opts.FileSummary {
		fmt.Fprintln(w, "# File Summary")
		fmt.Fprintln(w)
		for _, line := range summaryLines(opts, stats) {
			fmt.Fprintf(w, "- %s\n", line)
		}
		fmt.Fprintln(w)
	}
	if opts.DirectoryStructure {
		tree := Tree(paths(files))
		fence := Fence(tree)
		fmt.Fprintf(w, "# Directory Structure\n\n%s\n%s\n%s\n\n", fence, tree, fence)
	}

	fmt.Fprintln(w, "# Files")
	for _, f := range files {
		content := body(f.Content, opts.ShowLineNumbers)
		fence := "```"
		if opts.ParsableStyle {
			fence = Fence(content)
		}
		fmt.Fprintf(w, "\n## File: %s\n%s%s\n%s\n%s\n", f.Path, fence, f.Language, content, fence)
	}
	return nil
}

func renderXML(w *bufio.Writer, files []File, opts Options, stats Stats) error {
	text := func(s string) string {
		if !opts.ParsableStyle {
			return s
		}
		return escapeXML(s)
	}

	if opts.HeaderText != "" {
		fmt.Fprintf(w, "<user_provided_header>\n%s\n</user_provided_header>\n\n", text(strings.TrimRight(opts.HeaderText, "\n")))
	}
	if opts.FileSummary {
		fmt.Fprintln(w, "<file_summary>")
		for _, line := range summaryLines(opts, stats) {
			fmt.Fprintln(w, text(line))
		}
		fmt.Fprintln(w, "</file_summary>")
		fmt.Fprintln(w)
	}
	if opts.DirectoryStructure {
		fmt.Fprintf(w, "<directory_structure>\n%s\n</directory_structure>\n\n", text(Tree(paths(files))))
	}

	fmt.Fprintln(w, "<files>")
	for _, f := range files {
		fmt.Fprintf(w, "<file path=\"%s\">\n%s\n</file>\n\n", escapeXML(f.Path), text(body(f.Content, opts.ShowLineNumbers)))
	}
	fmt.Fprintln(w, "</files>")
	return nil
}

// body returns content without its trailing newline, optionally prefixed
// with right-aligned line numbers.
func body(content string, lineNumbers bool) string {
	content = strings.TrimSuffix(content, "\n")
	if !lineNumbers || content == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	width := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d: %s", width, i+1, line)
	}
	return b.String()
}

// Fence returns a backtick fence longer than any backtick run in s, and at
// least three long.
func Fence(s string) string {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}
