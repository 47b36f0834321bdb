package command

import (
	"fmt"
	"strings"

	"ai-notecopilot/pkg/errs"
)

const (
	FixGrammarSpelling  = "fixGrammarSpellingSelection"
	Summarize           = "summarizeSelection"
	TableOfContents     = "tocSelection"
	Glossary            = "glossarySelection"
	Simplify            = "simplifySelection"
	Emojify             = "emojifySelection"
	RemoveURLs          = "removeUrlsFromSelection"
	RewriteTweet        = "rewriteTweetSelection"
	RewriteTweetThread  = "rewriteTweetThreadSelection"
	RewriteShorter      = "rewriteShorterSelection"
	RewriteLonger       = "rewriteLongerSelection"
	ELI5                = "eli5Selection"
	RewritePressRelease = "rewritePressReleaseSelection"
	Translate           = "translateSelection"
	ChangeTone          = "changeToneSelection"
	ApplyCustomPrompt   = "applyCustomPromptSelection"
	CountTokens         = "countTokensSelection"
)

const (
	customPromptHole       = "{}"
	strictTweetTemperature = 0.2
)

func fixed(instruction string) PromptBuilder {
	return func(selection, _ string) (string, error) {
		return fmt.Sprintf("%s\n\n%s", instruction, selection), nil
	}
}

func parameterized(name, what string, build func(param, selection string) string) PromptBuilder {
	return func(selection, param string) (string, error) {
		if strings.TrimSpace(param) == "" {
			return "", errs.Input(name, "%s is required", what)
		}
		return build(strings.TrimSpace(param), selection), nil
	}
}

// FillInSelection puts selection where the template has {}, or after it when
// the template has no placeholder.
func FillInSelection(template, selection string) string {
	if strings.Contains(template, customPromptHole) {
		return strings.ReplaceAll(template, customPromptHole, selection)
	}
	return template + "\n\n" + selection
}

func temperature(v float64) *float64 { return &v }

// DefaultBindings is the selection command table. Every generating command is
// silent by default; only the tweet rewrites run cooler.
func DefaultBindings() []Binding {
	return []Binding{
		{Name: FixGrammarSpelling, Build: fixed("Please fix the grammar and spelling of the following text and return it without any other changes:")},
		{Name: Summarize, Build: fixed("Summarize the following text into bullet points and return it without any other changes. Output in the same language as the source, do not output English if it is not English:")},
		{Name: TableOfContents, Build: fixed("Please generate a table of contents for the following text and return it without any other changes. Output in the same language as the source:")},
		{Name: Glossary, Build: fixed("Please generate a glossary for the following text and return it without any other changes. Output in the same language as the source:")},
		{Name: Simplify, Build: fixed("Please simplify the following text so that a 6th-grader can understand. Output in the same language as the source:")},
		{Name: Emojify, Build: fixed("Please insert emojis into the following content without changing the text. Insert at as many places as possible, but don't have any 2 emojis together:")},
		{Name: RemoveURLs, Build: fixed("Please remove all URLs from the following text and return it without any other changes:")},
		{Name: RewriteTweet, Temperature: temperature(strictTweetTemperature), Build: fixed("Please rewrite the following content to under 280 characters using simple sentences. Output in the same language as the source:")},
		{Name: RewriteTweetThread, Temperature: temperature(strictTweetTemperature), Build: fixed("Please convert the following content into a tweet thread. Each tweet must be under 280 characters and start with \"THREAD START\" on the first and \"THREAD END\" on the last. Output in the same language as the source:")},
		{Name: RewriteShorter, Build: fixed("Please reduce the size of the following text to make it half as long while keeping the meaning. Output in the same language as the source:")},
		{Name: RewriteLonger, Build: fixed("Please make the following text twice as long while keeping the meaning. Output in the same language as the source:")},
		{Name: ELI5, Build: fixed("Please explain the following text like I'm 5 years old. Output in the same language as the source:")},
		{Name: RewritePressRelease, Build: fixed("Please rewrite the following text to make it sound like a press release. Output in the same language as the source:")},
		{Name: Translate, NeedsParam: true, Build: parameterized(Translate, "target language", func(lang, sel string) string {
			return fmt.Sprintf("Please translate the following text into %s and return only the translation:\n\n%s", lang, sel)
		})},
		{Name: ChangeTone, NeedsParam: true, Build: parameterized(ChangeTone, "tone", func(tone, sel string) string {
			return fmt.Sprintf("Please rewrite the following text in a %s tone. Output in the same language as the source:\n\n%s", tone, sel)
		})},
		{Name: ApplyCustomPrompt, NeedsParam: true, Build: parameterized(ApplyCustomPrompt, "custom prompt", FillInSelection)},
		{Name: CountTokens, Kind: KindCountTokens, Visible: true},
	}
}
