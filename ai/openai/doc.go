// Package openai implements the ai embedding interfaces against
// OpenAI-compatible APIs.
//
// The implementation works with any service exposing the OpenAI embeddings
// endpoint, including local runtimes such as Ollama, LocalAI and vLLM.
package openai
