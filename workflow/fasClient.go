package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FasAccessRecord is one row of the vendor's daily access table, joined with
// the employee and partner-company registries. All columns come back as
// strings; the vendor schema predates typed columns.
type FasAccessRecord struct {
	WorkerId    string `json:"worker_id"`
	WorkerName  string `json:"worker_name"`
	WorkerPhone string `json:"worker_phone"`
	PartnerName string `json:"partner_name"`
	AccessDay   string `json:"access_day"` // YYYYMMDD
	InTime      string `json:"in_time"`    // HHMM or HHMMSS
	OutTime     string `json:"out_time"`
	SiteCode    string `json:"site_code"`
}

// ListFasAccessRecords reads the access rows for one site and one access day.
// Rows without an in_time are gate errors and skipped at the source.
func ListFasAccessRecords(ctx context.Context, fas *sql.DB, siteCode, accsDay string) ([]*FasAccessRecord, error) {
	rows, err := fas.QueryContext(ctx, `
		SELECT a.empl_cd,
		       COALESCE(e.empl_nm, ''),
		       COALESCE(e.hp_no, ''),
		       COALESCE(p.part_nm, ''),
		       a.accs_day,
		       COALESCE(a.in_time, ''),
		       COALESCE(a.out_time, ''),
		       a.site_cd
		FROM access_daily a
		LEFT JOIN employee e ON e.empl_cd = a.empl_cd
		LEFT JOIN partner p ON p.part_cd = e.part_cd
		WHERE a.site_cd = ? AND a.accs_day = ? AND a.in_time IS NOT NULL AND a.in_time <> ''
		ORDER BY a.in_time ASC`,
		siteCode, accsDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*FasAccessRecord
	for rows.Next() {
		var r FasAccessRecord
		if err := rows.Scan(&r.WorkerId, &r.WorkerName, &r.WorkerPhone, &r.PartnerName,
			&r.AccessDay, &r.InTime, &r.OutTime, &r.SiteCode); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// CheckinTime combines the access day and in_time columns into a point in
// time, in the location the FAS clocks run on.
func (r *FasAccessRecord) CheckinTime(loc *time.Location) (time.Time, error) {
	layout := "20060102 1504"
	switch len(r.InTime) {
	case 4:
	case 6:
		layout = "20060102 150405"
	default:
		return time.Time{}, fmt.Errorf("unexpected in_time %q for worker %s", r.InTime, r.WorkerId)
	}
	return time.ParseInLocation(layout, r.AccessDay+" "+r.InTime, loc)
}
