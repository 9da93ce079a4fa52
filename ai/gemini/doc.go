// Package gemini implements ai.AIProvider on Google's Gemini API using the
// generative-ai-go SDK.
//
// Structured analysis uses a JSON response schema so the model's answer can
// be decoded with ai.DecodeAnalysis exactly like the OpenAI implementation.
package gemini
