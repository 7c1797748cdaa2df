package sqlinline

const QSelectProjectOwner = `--sql 71fbeb31-ba60-4955-9522-a0f2afce988b
select user_id::text
from projects
where id = $1::uuid
limit 1;
`
