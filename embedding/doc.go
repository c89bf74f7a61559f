// Package embedding defines the Embedder contract of the retrieval engine and
// a deterministic local implementation. Remote providers live in the openai
// (OpenAI API) and compat (OpenAI-compatible servers such as Ollama or vLLM)
// subpackages.
package embedding
