package sqlinline

const QStatsSummary = `--sql bce9a92b-d1e6-496b-b7d1-645bbdc05969
select
  (select count(*) from accounts)                 as total_accounts,
  (select count(*) from jobs)                     as total_jobs,
  (select coalesce(sum(cost), 0) from jobs)       as total_coins_spent;
`

// QStatsActivity buckets generations and signups per day over a trailing
// window. $1 is the window size in days.
const QStatsActivity = `--sql 86a93ab8-d13c-49d1-832e-d3af3da3b007
select day, sum(generations)::int as generations, sum(new_accounts)::int as new_accounts
from (
  select date_trunc('day', created_at) as day, 1 as generations, 0 as new_accounts
  from jobs
  where created_at >= date_trunc('day', now()) - make_interval(days => $1::int - 1)
  union all
  select date_trunc('day', created_at) as day, 0 as generations, 1 as new_accounts
  from accounts
  where created_at >= date_trunc('day', now()) - make_interval(days => $1::int - 1)
) activity
group by day
order by day asc;
`
