package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownOption = errors.New("unknown option")

type ContentType string

const (
	ContentBlogPost           ContentType = "Blog Post"
	ContentArticle            ContentType = "Article"
	ContentSocialMediaPost    ContentType = "Social Media Post"
	ContentProductDescription ContentType = "Product Description"
	ContentEmail              ContentType = "Email"
	ContentEssay              ContentType = "Essay"
)

var ContentTypes = []ContentType{
	ContentBlogPost, ContentArticle, ContentSocialMediaPost,
	ContentProductDescription, ContentEmail, ContentEssay,
}

type Length string

const (
	LengthShort  Length = "Short"
	LengthMedium Length = "Medium"
	LengthLong   Length = "Long"
)

var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// Label is the form shown to the user and embedded in prompts.
func (l Length) Label() string {
	switch l {
	case LengthShort:
		return "Short (100-200 words)"
	case LengthMedium:
		return "Medium (300-500 words)"
	case LengthLong:
		return "Long (800-1200 words)"
	}
	return string(l)
}

type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneCasual       Tone = "Casual"
	ToneFriendly     Tone = "Friendly"
	ToneFormal       Tone = "Formal"
	ToneCreative     Tone = "Creative"
	TonePersuasive   Tone = "Persuasive"
)

var Tones = []Tone{ToneProfessional, ToneCasual, ToneFriendly, ToneFormal, ToneCreative, TonePersuasive}

type Language string

const (
	English    Language = "English"
	Spanish    Language = "Spanish"
	French     Language = "French"
	German     Language = "German"
	Italian    Language = "Italian"
	Portuguese Language = "Portuguese"
	Chinese    Language = "Chinese"
	Japanese   Language = "Japanese"
	Korean     Language = "Korean"
	Arabic     Language = "Arabic"
)

var Languages = []Language{English, Spanish, French, German, Italian, Portuguese, Chinese, Japanese, Korean, Arabic}

const (
	DefaultSourceLanguage = English
	DefaultTargetLanguage = Spanish
)

// Code returns the ISO 639-1 code, or "" for an unknown language.
func (l Language) Code() string {
	switch l {
	case English:
		return "en"
	case Spanish:
		return "es"
	case French:
		return "fr"
	case German:
		return "de"
	case Italian:
		return "it"
	case Portuguese:
		return "pt"
	case Chinese:
		return "zh"
	case Japanese:
		return "ja"
	case Korean:
		return "ko"
	case Arabic:
		return "ar"
	}
	return ""
}

type ProgrammingLanguage string

const (
	Python     ProgrammingLanguage = "Python"
	JavaScript ProgrammingLanguage = "JavaScript"
	Java       ProgrammingLanguage = "Java"
	CPP        ProgrammingLanguage = "C++"
	CSharp     ProgrammingLanguage = "C#"
	Go         ProgrammingLanguage = "Go"
	Rust       ProgrammingLanguage = "Rust"
	PHP        ProgrammingLanguage = "PHP"
	Ruby       ProgrammingLanguage = "Ruby"
	Swift      ProgrammingLanguage = "Swift"
)

var ProgrammingLanguages = []ProgrammingLanguage{Python, JavaScript, Java, CPP, CSharp, Go, Rust, PHP, Ruby, Swift}

// Extension returns the file extension used for downloads, without the dot.
func (p ProgrammingLanguage) Extension() string {
	switch p {
	case Python:
		return "py"
	case JavaScript:
		return "js"
	case Java:
		return "java"
	case CPP:
		return "cpp"
	case CSharp:
		return "cs"
	case Go:
		return "go"
	case Rust:
		return "rs"
	case PHP:
		return "php"
	case Ruby:
		return "rb"
	case Swift:
		return "swift"
	}
	return "txt"
}

type Complexity string

const (
	Beginner     Complexity = "Beginner"
	Intermediate Complexity = "Intermediate"
	Advanced     Complexity = "Advanced"
)

var Complexities = []Complexity{Beginner, Intermediate, Advanced}

type ExplanationLevel string

const (
	LevelBeginnerFriendly ExplanationLevel = "Beginner-friendly"
	LevelTechnical        ExplanationLevel = "Technical"
	LevelLineByLine       ExplanationLevel = "Line-by-line"
)

var ExplanationLevels = []ExplanationLevel{LevelBeginnerFriendly, LevelTechnical, LevelLineByLine}

func ParseContentType(s string) (ContentType, error) {
	return parseOption("content type", s, ContentTypes, ContentBlogPost)
}

// ParseLength accepts both the bare name ("Short") and the label
// ("Short (100-200 words)").
func ParseLength(s string) (Length, error) {
	name := strings.TrimSpace(s)
	if i := strings.IndexByte(name, '('); i > 0 {
		name = name[:i]
	}
	return parseOption("length", name, Lengths, LengthShort)
}

func ParseTone(s string) (Tone, error) {
	return parseOption("tone", s, Tones, ToneProfessional)
}

func ParseLanguage(s string, def Language) (Language, error) {
	return parseOption("language", s, Languages, def)
}

func ParseProgrammingLanguage(s string) (ProgrammingLanguage, error) {
	return parseOption("programming language", s, ProgrammingLanguages, Python)
}

func ParseComplexity(s string) (Complexity, error) {
	return parseOption("complexity", s, Complexities, Beginner)
}

func ParseExplanationLevel(s string) (ExplanationLevel, error) {
	return parseOption("explanation level", s, ExplanationLevels, LevelBeginnerFriendly)
}

// parseOption matches s case-insensitively against options. An empty s
// yields def, the value the form starts out with.
func parseOption[T ~string](kind, s string, options []T, def T) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	for _, o := range options {
		if strings.EqualFold(string(o), s) {
			return o, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownOption, kind, s)
}
