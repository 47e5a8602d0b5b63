// Package markdown reads post sources and compiles them into serialisable
// HTML documents. Compilation runs goldmark with an ordered list of stages;
// each stage is a goldmark extender such as image dimension inference or
// syntax highlighting.
package markdown
