package sqlinline

// The projects table is a document collection: one JSONB body per saved
// workspace plus store-native timestamps. The store identifier is assigned
// by Postgres and is distinct from the workspace's local identifier kept
// inside the document.

const QEnsureProjectsTable = `--sql 98be3c9f-7bbb-4e6e-8798-94a1f62bba8e
create table if not exists projects (
  id uuid primary key default gen_random_uuid(),
  doc jsonb not null,
  last_updated timestamptz not null default now(),
  created_at timestamptz not null default now()
);
`

const QInsertProject = `--sql dacf86ad-466f-4a1f-b56b-0966852f78e6
insert into projects (doc, last_updated, created_at)
values ($1::jsonb, now(), now())
returning id::text;
`

const QListProjects = `--sql dde1634c-eb46-4cfd-b192-73c9cb2ea6f1
select id::text, doc, last_updated, created_at
from projects
order by last_updated desc nulls last;
`

const QMergeProject = `--sql 9b49c23d-8e86-4e87-8792-ae3b18366863
update projects
set doc = doc || $2::jsonb,
    last_updated = now()
where id = $1::uuid;
`

const QDeleteProject = `--sql d570049e-ecc7-4fea-8e21-e7f656e56ab5
delete from projects
where id = $1::uuid;
`
