// Package challenge provides the catalog of coding challenges a playground
// page can be opened for.
//
// Challenges are read from manifests (challenge.yaml, challenge.yml or
// challenge.toml) anywhere below the catalog directory and, optionally,
// from a remote JSON index. A manifest carries a title, an HTML
// description (sanitized before use) and starter text for each source
// kind, either inline or as a path to a sibling file:
//
//	id: counter
//	title: Counter
//	description: <p>Make the button count clicks.</p>
//	starter:
//	  markup_file: index.html
//	  style: "button { font-size: 2rem; }"
//
// Starter text only replaces the editor placeholders; buffers still start
// empty. Unknown challenge IDs resolve to the default challenge.
package challenge
