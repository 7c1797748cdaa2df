package sqlinline

const QInsertTask = `--sql bcadf9c9-3323-4d59-a4af-8a62f56e40b6
insert into tasks (
  id, project_id, type, model, provider_id, category, related_id, status, input_params, progress
) values (
  coalesce(nullif($1::text, '')::uuid, gen_random_uuid()),
  $2::uuid,
  $3::text,
  $4::text,
  $5::text,
  $6::text,
  $7::uuid,
  'pending',
  coalesce($8::jsonb, '{}'::jsonb),
  0
)
returning id::text, status, progress, created_at, updated_at;
`

const QSelectTaskByID = `--sql f36df41b-bb03-494a-9601-061730310d7c
select
  t.id::text,
  t.project_id::text,
  p.user_id::text,
  t.type,
  t.model,
  t.provider_id,
  t.category,
  t.related_id::text,
  t.status,
  t.input_params,
  coalesce(t.external_task_id, ''),
  t.progress,
  coalesce(t.error, ''),
  t.created_at,
  t.updated_at
from tasks t
join projects p on p.id = t.project_id
where t.id = $1::uuid
limit 1;
`

const QListTasksByStatus = `--sql b1dd060f-43f7-4d09-a992-1cfa39e9a42d
select
  t.id::text,
  t.project_id::text,
  p.user_id::text,
  t.type,
  t.model,
  t.provider_id,
  t.category,
  t.related_id::text,
  t.status,
  t.input_params,
  coalesce(t.external_task_id, ''),
  t.progress,
  coalesce(t.error, ''),
  t.created_at,
  t.updated_at
from tasks t
join projects p on p.id = t.project_id
where t.status = $1::text
order by t.updated_at asc;
`

const QListPendingTasksBefore = `--sql 7d19ad1b-3894-4055-9a7e-4e7208567c94
select
  t.id::text,
  t.project_id::text,
  p.user_id::text,
  t.type,
  t.model,
  t.provider_id,
  t.category,
  t.related_id::text,
  t.status,
  t.input_params,
  coalesce(t.external_task_id, ''),
  t.progress,
  coalesce(t.error, ''),
  t.created_at,
  t.updated_at
from tasks t
join projects p on p.id = t.project_id
where t.status = 'pending'
  and t.updated_at < $1::timestamptz
order by t.updated_at asc;
`

// QTransitionTask only matches while the row is still in one of the allowed
// source states; zero affected rows means another writer got there first.
const QTransitionTask = `--sql f2b53eda-9b3b-48b5-a214-abbcddcacf6e
update tasks
set status = $2::text,
    external_task_id = coalesce($3::text, external_task_id),
    progress = coalesce($4::int, progress),
    error = coalesce($5::text, error),
    updated_at = now()
where id = $1::uuid
  and status = any($6::text[]);
`
