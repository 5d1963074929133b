package postgres

const eventColumns = `
  id, owner_id, title, description, city, category,
  start_time, end_time, tickets, status,
  published_at, completed_at, cancel_reason, cancelled_by, cancelled_at,
  created_at, updated_at`

const insertEventSQL = `
INSERT INTO events (
  id, owner_id, title, description, city, city_norm, category,
  start_time, end_time, tickets, status,
  published_at, completed_at, cancel_reason, cancelled_by, cancelled_at,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11,$12,$13,$14,$15,$16,$17,$18)
`

const getEventSQL = `SELECT` + eventColumns + `
FROM events WHERE id = $1
`

const selectEventForUpdateSQL = getEventSQL + `FOR UPDATE
`

const updateEventSQL = `
UPDATE events SET
  title=$2, description=$3, city=$4, city_norm=$5, category=$6,
  start_time=$7, end_time=$8, tickets=$9::jsonb, status=$10,
  published_at=$11, completed_at=$12,
  cancel_reason=$13, cancelled_by=$14, cancelled_at=$15,
  updated_at=$16
WHERE id=$1
`
