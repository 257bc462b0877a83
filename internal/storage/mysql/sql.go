package mysql

// LAST_INSERT_ID(id) makes the upsert return the surrogate key on the
// duplicate path too, so one round trip covers insert and update.
const upsertOrganizationSQL = `
INSERT INTO organizations
  (code, display_name, app_id)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  id           = LAST_INSERT_ID(id),
  display_name = VALUES(display_name),
  app_id       = VALUES(app_id)
`

const recordAppInfoSQL = `
UPDATE organizations
SET app_title = ?, app_score = ?, app_ratings = ?
WHERE code = ?
`

// First write wins: a primary-key collision leaves the stored row (including
// its sentiment) untouched. The self-assignment makes the conflict a no-op
// without swallowing other errors the way INSERT IGNORE would.
const insertReviewSQL = `
INSERT INTO reviews
  (review_id, organization_id, review_text, rating, review_date,
   thumbs_up, user_name, reply_text, app_version, source, sentiment, ingested_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  review_id = review_id
`

const recordRunSQL = `
INSERT INTO ingest_runs
  (org_code, fetched, rejected, deduped, persisted, failed, fetch_error)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const listOrganizationsSQL = `
SELECT id, code, display_name, app_id
FROM organizations
ORDER BY code
`

const listReviewsSQL = `
SELECT r.review_id, o.code, r.review_text, r.rating, r.review_date,
       r.thumbs_up, r.user_name, r.reply_text, r.app_version, r.source,
       r.sentiment, r.ingested_at
FROM reviews r
JOIN organizations o ON o.id = r.organization_id
WHERE o.code = ?
ORDER BY r.review_date DESC, r.review_id
LIMIT ?
`

const sentimentCountsSQL = `
SELECT COALESCE(r.sentiment, ''), COUNT(*)
FROM reviews r
JOIN organizations o ON o.id = r.organization_id
WHERE o.code = ?
GROUP BY r.sentiment
`
