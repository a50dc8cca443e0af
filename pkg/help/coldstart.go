package help

const ColdstartYAML = `# enquote Quick Start

source_kinds:
  social-post: "x.com / twitter.com status pages"
  discussion-comment: "reddit comment permalinks"
  discussion-post: "reddit threads"
  text-collection: "archive.org/details items (textual works only)"
  catalog-record: "Google Books edition pages (looked up by volume id)"
  article: "any other page with schema.org Article JSON-LD"

commands:
  cite: |
    enquote cite "https://x.com/user/status/123"

  cite_with_selection: |
    enquote cite --selection "the words you highlighted" "https://example.com/story"

  cite_saved_page: |
    enquote cite --html-file page.html --no-archive "https://example.com/story"

  classify: |
    enquote classify "https://old.reddit.com/r/golang/comments/abc/title/comment/xyz/"

  history: |
    enquote history --today
    enquote history --kind catalog-record --format yaml
    enquote history show

  language: |
    enquote language set fr
    enquote language set auto

  bridge: |
    enquote bridge --addr 127.0.0.1:8931

language_order:
  - "--lang flag"
  - "stored preference (enquote language set)"
  - "detected from the passage"
  - "en"

archive:
  - "Each cite submits the page to archive.ph in a background tab"
  - "The tab is polled until it reaches a permalink (archive.max_attempts x archive.interval)"
  - "On timeout the citation is produced without archiveurl/archivedate"

bridge_api:
  wait: 'POST /v1/archive/wait {"type":"wait_for_archiveurl","tabId":N}'
  navigation: 'POST /v1/navigation {"tabId":N,"url":"https://archive.ph/..."}'
  health: "GET /healthz"
  metrics: "GET /metrics"

error_behavior:
  - "Malformed URLs: fail fast before fetching"
  - "Exit codes: 0=success, 1=cannot extract or bad input, 2=unexpected failure"
`
