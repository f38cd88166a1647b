package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// How long a completed sync for (site, day) suppresses re-runs.
const fasSyncIdempotencyTTL = time.Hour

// SyncResult summarizes one cross-match batch. Unmatched worker codes are
// returned so admins can fix the worker registry; they are not errors.
type SyncResult struct {
	AccessDay      string   `json:"access_day"`
	Synced         int      `json:"synced"`
	Skipped        int      `json:"skipped"`
	Unmatched      []string `json:"unmatched"`
	AlreadyRunOrIn bool     `json:"already_synced"`
}

// SyncAttendance cross-matches today's FAS access rows into local attendance
// records for one site. The batch is idempotent two ways: a redis marker
// suppresses whole re-runs for an hour, and each row is deduped on
// (worker, site, checkinAt) so partial retries never double-insert.
//
// A distributed lock keeps concurrent instances from racing the same batch,
// but losing redis only loses the lock: the row-level dedupe still holds, so
// the sync proceeds without it.
func SyncAttendance(ctx context.Context, db *gorm.DB, site *models.Site, now time.Time) (*SyncResult, error) {
	fas := config.GetFasDB()
	if fas == nil {
		return nil, utils.NewServiceUnavailableError("FAS source is not configured")
	}
	if site.Code == "" {
		return nil, utils.NewValidationError("site has no FAS site code")
	}

	accsDay := utils.AccsDay(now, models.DefaultDayCutoffHour)
	result := &SyncResult{AccessDay: accsDay}

	markerKey := fmt.Sprintf("fasSync:%s:%s", site.Code, accsDay)
	if _, done, err := config.GetRedisValue(markerKey); err != nil {
		config.LogError(config.GetLogger(), "fasSync.go", "SyncAttendance", "GetRedisValue", markerKey, err)
	} else if done {
		result.AlreadyRunOrIn = true
		return result, nil
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:"+markerKey, 30*time.Second, nil)
		if err != nil {
			if err == redislock.ErrNotObtained {
				result.AlreadyRunOrIn = true
				return result, nil
			}
			config.LogError(config.GetLogger(), "fasSync.go", "SyncAttendance", "Obtain", markerKey, err)
		} else {
			defer lock.Release(context.Background())
		}
	}

	records, err := ListFasAccessRecords(ctx, fas, site.Code, accsDay)
	if err != nil {
		return nil, err
	}

	workerIds := make([]string, 0, len(records))
	for _, r := range records {
		workerIds = append(workerIds, r.WorkerId)
	}
	users, err := models.GetUsersByExternalWorkerIds(ctx, db, workerIds)
	if err != nil {
		return nil, err
	}

	seenUnmatched := map[string]bool{}
	for _, r := range records {
		user, ok := users[r.WorkerId]
		if !ok {
			// Worker-code links lag behind onboarding; the phone the vendor
			// holds for the worker is the fallback key.
			user = matchByPhone(ctx, db, r)
		}
		if user == nil {
			if !seenUnmatched[r.WorkerId] {
				seenUnmatched[r.WorkerId] = true
				result.Unmatched = append(result.Unmatched, r.WorkerId)
			}
			continue
		}

		checkinAt, err := r.CheckinTime(utils.Seoul())
		if err != nil {
			config.LogError(config.GetLogger(), "fasSync.go", "SyncAttendance", "CheckinTime", r, err)
			result.Skipped++
			continue
		}

		exists, err := models.AttendanceExists(ctx, db, r.WorkerId, site.ID, checkinAt)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		record := &models.AttendanceRecord{
			UserId:           user.ID,
			SiteId:           site.ID,
			CheckinAt:        checkinAt,
			Source:           models.AttendanceSourceFasSync,
			ExternalWorkerId: r.WorkerId,
		}
		if err := db.WithContext(ctx).Create(record).Error; err != nil {
			return nil, err
		}
		result.Synced++
	}

	if err := config.SetRedisValue(markerKey, "done", fasSyncIdempotencyTTL); err != nil {
		config.LogError(config.GetLogger(), "fasSync.go", "SyncAttendance", "SetRedisValue", markerKey, err)
	}
	return result, nil
}

// matchByPhone resolves a FAS row to a local user through the vendor's phone
// column when the worker-code link is missing. Best effort: a row whose phone
// does not normalize, or matches nobody, stays unmatched.
func matchByPhone(ctx context.Context, db *gorm.DB, r *FasAccessRecord) *models.User {
	if r.WorkerPhone == "" {
		return nil
	}
	phone, err := utils.NormalizePhoneNumber(r.WorkerPhone)
	if err != nil {
		return nil
	}
	user, err := models.GetUserByPhone(ctx, db, phone)
	if err != nil {
		if err != utils.ErrorRecordNotFound {
			config.LogError(config.GetLogger(), "fasSync.go", "matchByPhone", "GetUserByPhone", r.WorkerId, err)
		}
		return nil
	}
	return user
}
