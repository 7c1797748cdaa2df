package sqlinline

// QFindOrCreateAsset inserts the dedup tuple or, when assets_dedup_idx
// already holds it, returns the existing row. The no-op update makes the
// conflicting row visible to this statement even when a concurrent
// transaction committed it after our snapshot; xmax = 0 only on fresh inserts.
const QFindOrCreateAsset = `--sql 5b1f0c3e-8a7d-4e26-9c41-d2f63a8e917b
insert into assets (user_id, project_id, task_id, type, usage, related_id, source, url)
values (
  $1::uuid,
  nullif($2::text, '')::uuid,
  nullif($3::text, '')::uuid,
  $4::text,
  nullif($5::text, ''),
  nullif($6::text, '')::uuid,
  $7::text,
  $8::text
)
on conflict (user_id, project_id, task_id, type, usage, related_id, source, url)
do update set url = excluded.url
returning id::text, created_at, (xmax = 0) as created;
`

const QListAssetHistory = `--sql 244b6075-e54d-4a61-b289-479ac785782c
select
  id::text,
  user_id::text,
  coalesce(project_id::text, ''),
  coalesce(task_id::text, ''),
  type,
  coalesce(usage, ''),
  coalesce(related_id::text, ''),
  source,
  url,
  created_at
from assets
where user_id = $1::uuid
  and usage = $2::text
  and related_id = $3::uuid
  and ($4::text = '' or type = $4::text)
order by created_at desc
limit $5::int;
`
