// Package sqlinline holds every SQL statement the service executes. Each
// constant starts with a `--sql <uuid>` audit marker consumed by
// infra.SQLRunner and enforced by internal/tools/sqllint.
package sqlinline

// jobColumns is the canonical scan order for image_jobs rows.
const jobColumns = `record_key, status, title, prompt, source_bucket, source_path,
       output_bucket, output_path, output_url, error_message, error_count,
       started_at, completed_at, created_at, updated_at`

// QUpsertQueuedJob creates a queued record, or re-queues one stuck in error.
// Records in any other state are left untouched (no row returned).
const QUpsertQueuedJob = `--sql 6b1d3f9a-8e5c-4b27-9d6f-3a2e7c4b8d15
insert into image_jobs (record_key, title)
values ($1, $2)
on conflict (record_key) do update
set status = 'queued',
    title = excluded.title,
    error_message = '',
    updated_at = now()
where image_jobs.status = 'error'
returning ` + jobColumns + `;
`

const QSelectJob = `--sql 2d6e8a4c-3b9f-4715-a8c2-e5d7b1f4a693
select ` + jobColumns + `
from image_jobs
where record_key = $1;
`

// QClaimJobByKey is the atomic queued -> processing transition. The update is
// a single read-modify-write, so of any number of concurrent duplicate
// deliveries exactly one sees a row come back. A non-null $2 cutoff also
// reclaims a processing/generating record that has gone stale.
const QClaimJobByKey = `--sql 7c2f4b1a-9d3e-4a68-b5c1-2f8e6a0d4c97
update image_jobs
set status = 'processing', started_at = now(), updated_at = now()
where record_key = $1
  and (status = 'queued'
       or ($2::timestamptz is not null
           and status in ('processing', 'generating')
           and updated_at < $2))
returning ` + jobColumns + `;
`

// QClaimNextJob claims the oldest queued record for the poll worker.
const QClaimNextJob = `--sql 3a91c7e5-0f42-4d8b-a6d3-9b7e1c5f2a48
with next_job as (
    select record_key
    from image_jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
)
update image_jobs
set status = 'processing', started_at = now(), updated_at = now()
where record_key in (select record_key from next_job)
returning ` + jobColumns + `;
`

const QMarkJobGenerating = `--sql b4e8d2f6-1a3c-4e79-8b5d-c6f9a2e41073
update image_jobs
set status = 'generating', updated_at = now()
where record_key = $1
  and status = 'processing';
`

// QCompleteJob records a successful generation. The guard makes a repeat call
// with identical arguments touch nothing.
const QCompleteJob = `--sql e5a1c9b3-7d2f-4c86-9e4a-1b8d3f6c2a59
update image_jobs
set status = 'done',
    output_bucket = $2,
    output_path = $3,
    output_url = $4,
    error_message = '',
    completed_at = now(),
    updated_at = now()
where record_key = $1
  and not (status = 'done'
           and output_bucket = $2
           and output_path = $3
           and output_url = $4);
`

// QFailJob records a failure. Re-recording the identical message on a record
// already in error writes nothing, so error_count is not double-incremented
// by duplicate deliveries.
const QFailJob = `--sql 9f3b7d1e-5c8a-4f62-b3e9-7a4c1d8e5b26
update image_jobs
set status = 'error',
    error_message = $2,
    error_count = error_count + 1,
    updated_at = now()
where record_key = $1
  and not (status = 'error' and error_message = $2);
`

const QSetJobOutputURL = `--sql a7c5e1d9-4f6b-4a38-8c7e-2b9d5f1a3e64
update image_jobs
set output_url = $2, updated_at = now()
where record_key = $1
  and output_url is distinct from $2;
`

const QNormalizeJobDone = `--sql 4e9a2c6f-7b1d-4593-b2a8-6d3f8e5c1b79
update image_jobs
set status = 'done', updated_at = now()
where record_key = $1
  and status <> 'done';
`
