// Package gitctx finds the files a local scan should cover.
//
// [Repo] shells out to git for the staged snapshot used by the pre-commit
// hook; [CollectFiles] walks plain paths for ad hoc scans. Both filter with
// glob patterns via [MatchesAny].
package gitctx
