// Package lessons holds the repositories over the single-table item layout:
// authored lesson content, per-user lesson progress, notes, chat, the per-user
// course rollup, and the activity log.
package lessons
