package sqlinline

const jobColumns = `id, owner_id, state, progress, cost, duration_seconds, aspect_ratio, quality,
       coalesce(motion_id, ''), coalesce(input_image_key, ''), coalesce(reference_key, ''),
       coalesce(engine_handle, ''), coalesce(result_uri, ''), coalesce(failure_reason, ''),
       created_at, updated_at`

const QInsertJob = `--sql 11c0089d-12a5-46da-8235-aa51f7dd1516
insert into jobs (id, owner_id, state, progress, cost, duration_seconds, aspect_ratio, quality,
                  motion_id, input_image_key, reference_key, engine_handle, result_uri, failure_reason,
                  created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::int, $5::int, $6::int, $7::text, $8::text,
        nullif($9::text, ''), nullif($10::text, ''), nullif($11::text, ''), nullif($12::text, ''),
        nullif($13::text, ''), nullif($14::text, ''), $15::timestamptz, now())
returning created_at, updated_at;
`

const QSelectJobByID = `--sql f57a165c-aa3d-46ba-9f1a-edaf332bcbbd
select ` + jobColumns + `
from jobs
where id = $1::uuid
limit 1;
`

// QSelectJobForUpdate locks the row for the read-modify-write performed by
// the poller. Used inside a transaction only.
const QSelectJobForUpdate = `--sql dd0b5c4f-cf99-4c55-9297-dd78d257bc97
select ` + jobColumns + `
from jobs
where id = $1::uuid
for update;
`

const QUpdateJob = `--sql 591408a9-9cb0-4726-ba81-edb7ad575361
update jobs
set state = $2::text,
    progress = $3::int,
    engine_handle = nullif($4::text, ''),
    result_uri = nullif($5::text, ''),
    failure_reason = nullif($6::text, ''),
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QListJobsByOwner = `--sql 46c1c194-bafa-485e-aa78-4adf36e4a821
select ` + jobColumns + `
from jobs
where owner_id = $1::uuid
order by created_at desc, id desc;
`

const QListActiveJobs = `--sql f2775e93-76db-4182-83a4-6b77a52f6ed3
select ` + jobColumns + `
from jobs
where state not in ('completed', 'failed')
order by created_at desc, id desc;
`

const QListAllJobs = `--sql debf0c8a-1472-4adc-9345-7953109a5117
select ` + jobColumns + `
from jobs
order by created_at desc, id desc;
`
