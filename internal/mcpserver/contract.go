package mcpserver

// LogFormatContract describes where site content lives and how a project
// log must be written. It is served to LLM clients before they create logs.
const LogFormatContract = `# Atelier Log Format Contract

Content lives under a single root. Collection directories are fixed:

` + "```" + `
projects/<slug>/index.md                  project page
projects/<slug>/logs/YYYY-MM-DD-<name>.md  project log
blog/<slug>.md                            blog post
socials.yaml                              social links
assets/<file>                             images, served at /assets/<file>
` + "```" + `

## Project logs

` + "```" + `markdown
---
title: Trued the spindle          # REQUIRED
date: 2025-03-02                  # written by create_log, informational
tags: [metal, bearings]           # OPTIONAL
---

What changed, in Markdown. Link other entries with [[slug]].
` + "```" + `

## Rules

1. **The file name carries the date.** A log's date is read from the
   ` + "`" + `YYYY-MM-DD-` + "`" + ` prefix of its file name, not from frontmatter. Files
   without that prefix are undated and never make a project live.
2. **The newest log wins.** Projects are ranked by their latest log date;
   the project with the most recent log is flagged live on the site.
3. **Use create_log.** It checks the project exists, slugifies the title
   and refuses to overwrite an existing log for the same day and title.
4. **Renaming moves the file.** retitle_log keeps the date prefix, renames
   the file after the new title and rewrites the frontmatter title.
   delete_log removes a log for good.
5. **Slugs** are lowercase ASCII, digits and hyphens.
6. **Encoding** is UTF-8 with a trailing newline.

## Assets & Images

- Upload images via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + ` field ready to paste into the body.
- Assets are stored flat in ` + "`" + `assets/` + "`" + `.
- Reference them with the absolute path: ` + "`" + `![description](/assets/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg.

## Example

` + "```" + `markdown
---
title: Tailstock alignment
date: 2025-03-02
tags: [metal]
---

Shimmed the tailstock until the test bar read flat over 150 mm.

![Dial indicator](/assets/tailstock-dial.jpg)

Next: rework the [[lathe]] spindle bearings.
` + "```" + `
`
