// Package classifier assigns genres to tracks by asking a language model and parsing its reply.
//
// # Model Call
//
// [LLMClassifier] sends one single-turn chat completion per track to an OpenAI-compatible endpoint
// (Groq by default). The configured instructions are sent as system messages and constrain the
// reply to the vocabulary with no reasoning. The call is synchronous and never retried.
//
// # Parsing
//
// [Parse] strips terminal escape sequences from the reply and extracts every vocabulary label in
// order of appearance with [ExtractGenres]. Repeated labels are kept. A reply with no label parses
// to [models.Unclassified]; empty or malformed output is not an error.
//
// # Reuse
//
// [ReusingClassifier] consults a [Store] of previous classifications before calling the model.
package classifier
