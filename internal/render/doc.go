// Package render implements the deferred render pipeline that hosts lazy
// fragments such as the comment widget.
//
// Rendering happens in two phases. While a page is rendered, components emit
// a Lazy unit (builder name plus string args) through Page.Placeholder instead
// of building their output. Once the page markup is complete,
// Pipeline.Resolve replaces each placeholder with the fragment built by the
// registered BuilderFunc, merging the fragments' Attachments and Cacheability
// into the response.
//
// Fragments are cached in Cache under the Lazy key plus the values of the
// cache contexts the fragment declared (for example "user"). Saving external
// state calls Pipeline.InvalidateTags with the state's cache tags, which drops
// every fragment that read it.
package render
