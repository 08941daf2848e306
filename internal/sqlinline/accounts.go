package sqlinline

const QInsertAccount = `--sql 0e970ab3-dbf4-4bfa-b134-56f7f2461bac
insert into accounts (id, email, name, role, coins, suspended, country, created_at, updated_at)
values ($1::uuid, lower($2::text), $3::text, $4::text, $5::int, false, $6::text, now(), now())
returning created_at, updated_at;
`

const QSelectAccountByID = `--sql 57514771-1982-4395-b4c1-275fc722a299
select id, email, name, role, coins, suspended, coalesce(country, ''), created_at, updated_at
from accounts
where id = $1::uuid
limit 1;
`

const QSelectAccountByEmail = `--sql 8392985b-4e8b-4363-8e7c-a315ae36c591
select id, email, name, role, coins, suspended, coalesce(country, ''), created_at, updated_at
from accounts
where email = lower($1::text)
limit 1;
`

// QDebitAccount decreases the balance only when the account is active and
// can afford the amount. The conditional update is the ledger's concurrency
// contract: the row lock serializes concurrent debits, so the balance can
// never go negative. Zero rows means not-found, suspended, or insufficient
// funds; the caller re-reads the account to classify.
const QDebitAccount = `--sql e535b7ca-150b-4025-96ef-a6aa3e2d57c0
update accounts
set coins = coins - $2::int,
    updated_at = now()
where id = $1::uuid
  and suspended = false
  and coins >= $2::int
returning coins;
`

const QCreditAccount = `--sql 742c9c92-ac22-45ab-83e9-68d6f24af066
update accounts
set coins = coins + $2::int,
    updated_at = now()
where id = $1::uuid
returning coins;
`

const QSetAccountSuspended = `--sql d257996b-cd1d-4f67-9da8-39a27e7a3d69
update accounts
set suspended = $2::boolean,
    updated_at = now()
where id = $1::uuid
returning id;
`

const QListAccounts = `--sql 8985e5dc-c4a2-4cb7-a164-83f8d4ff454b
select id, email, name, role, coins, suspended, coalesce(country, ''), created_at, updated_at
from accounts
order by created_at asc;
`
