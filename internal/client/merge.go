package client

import (
	"wordbuilder/internal/models"
)

// Merge reconciles two progress records for the same (session, level). The
// additive counters are never summed: both sides may already contain the
// other's prior contributions from earlier syncs, so summing would double
// count. Instead one side is chosen as the primary source for the counters
// and the current streak:
//
//  1. a side whose counters are all >= the other's, with at least one strictly
//     greater, wins outright (its counters already include everything the
//     other side has);
//  2. otherwise the side with the more recent lastPlayedAt wins;
//  3. ties fall to the remote side, the reconciliation authority.
//
// bestStreak always takes the maximum regardless of which side is primary,
// attempts are unioned and deduplicated, and accuracy is never merged at all:
// it is recomputed from the surviving counters.
func Merge(local, remote *models.ProgressRecord) models.ProgressRecord {
	if remote.IsEmpty() {
		if local == nil {
			return models.ProgressRecord{}
		}
		out := *local
		out.WordAttempts = models.MergeAttempts(local.WordAttempts, nil)
		return out
	}
	if local.IsEmpty() {
		out := *remote
		out.WordAttempts = models.MergeAttempts(remote.WordAttempts, nil)
		return out
	}

	primary, secondary := remote, local
	if localIsPrimary(local, remote) {
		primary, secondary = local, remote
	}

	out := models.ProgressRecord{
		SessionID:        primary.SessionID,
		Level:            primary.Level,
		WordsCompleted:   primary.WordsCompleted,
		TotalAttempts:    primary.TotalAttempts,
		CorrectAttempts:  primary.CorrectAttempts,
		TimeSpentSeconds: primary.TimeSpentSeconds,
		CurrentStreak:    primary.CurrentStreak,
		BestStreak:       max(local.BestStreak, remote.BestStreak),
		LastPlayedAt:     primary.LastPlayedAt,
	}
	if secondary.LastPlayedAt.After(out.LastPlayedAt) {
		out.LastPlayedAt = secondary.LastPlayedAt
	}
	out.WordAttempts = models.MergeAttempts(local.WordAttempts, remote.WordAttempts)
	return out
}

func localIsPrimary(local, remote *models.ProgressRecord) bool {
	if countersSuperior(local, remote) {
		return true
	}
	if countersSuperior(remote, local) {
		return false
	}
	return local.LastPlayedAt.After(remote.LastPlayedAt)
}

// countersSuperior reports whether a's additive counters dominate b's: none
// smaller, at least one strictly greater. Counters only ever grow, so a
// dominating side must already include the other's history.
func countersSuperior(a, b *models.ProgressRecord) bool {
	if a.WordsCompleted < b.WordsCompleted || a.TotalAttempts < b.TotalAttempts ||
		a.CorrectAttempts < b.CorrectAttempts || a.TimeSpentSeconds < b.TimeSpentSeconds {
		return false
	}
	return a.WordsCompleted > b.WordsCompleted || a.TotalAttempts > b.TotalAttempts ||
		a.CorrectAttempts > b.CorrectAttempts || a.TimeSpentSeconds > b.TimeSpentSeconds
}
